// Package dispatcher 通过 TCP 接收任务请求并返回结果信封。
//
// 每个连接处理一个请求：客户端发送一帧 {"task": ..., "data": {...}}，
// 服务端回一帧 {"status", "message", "result"} 后关闭连接。
package dispatcher

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net"
	"sync"
	"time"

	"go-soilwater/config"
	"go-soilwater/models"
)

// Runner 按名称执行任务
type Runner interface {
	Run(task string, payload json.RawMessage) (models.Envelope, error)
}

// Request 请求帧
type Request struct {
	Task string          `json:"task"`
	Data json.RawMessage `json:"data"`
}

// Server TCP 任务分发服务
type Server struct {
	runner        Runner
	readTimeout   time.Duration
	maxFrameBytes int
	wg            sync.WaitGroup
}

// NewServer 创建一个新的Server实例
func NewServer(runner Runner, cfg config.ServerConfig) *Server {
	s := &Server{runner: runner, readTimeout: cfg.ReadTimeout, maxFrameBytes: cfg.MaxFrameBytes}
	if s.readTimeout <= 0 {
		s.readTimeout = 30 * time.Second
	}
	return s
}

// Serve 接受连接直到 ctx 取消，返回前等待进行中的连接处理完
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			ln.Close()
		case <-stop:
		}
	}()

	log.Printf("Dispatcher is listening on %s", ln.Addr())
	defer s.wg.Wait()
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				log.Println("Dispatcher shutting down gracefully")
				return nil
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				continue
			}
			return err
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handle(conn)
		}()
	}
}

func (s *Server) handle(conn net.Conn) {
	defer conn.Close()
	if err := conn.SetDeadline(time.Now().Add(s.readTimeout)); err != nil {
		log.Printf("Failed to set deadline for %s: %v", conn.RemoteAddr(), err)
		return
	}

	data, err := ReadFrame(conn, s.maxFrameBytes)
	if err != nil {
		if !errors.Is(err, io.EOF) {
			log.Printf("Connection error from %s: %v", conn.RemoteAddr(), err)
		}
		return
	}

	var env models.Envelope
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		env = models.Failed("invalid request: " + err.Error())
	} else {
		var runErr error
		env, runErr = s.runner.Run(req.Task, req.Data)
		if runErr != nil {
			log.Printf("Task %q from %s failed (%s): %v", req.Task, conn.RemoteAddr(), models.Kind(runErr), runErr)
		}
	}

	out, err := json.Marshal(env)
	if err != nil {
		log.Printf("Failed to encode response for task %q: %v", req.Task, err)
		out, _ = json.Marshal(models.Failed("failed to encode result"))
	}
	if err := WriteFrame(conn, out); err != nil {
		log.Printf("Failed to send response to %s: %v", conn.RemoteAddr(), err)
	}
}
