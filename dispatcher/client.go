package dispatcher

import (
	"context"
	"encoding/json"
	"fmt"
	"net"

	"go-soilwater/models"
)

// Call 连接 addr 发送一个任务并等待结果，ctx 的截止时间作用于整个往返
func Call(ctx context.Context, addr, task string, data interface{}) (models.Envelope, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return models.Envelope{}, fmt.Errorf("failed to encode task data: %w", err)
	}
	frame, err := json.Marshal(Request{Task: task, Data: payload})
	if err != nil {
		return models.Envelope{}, fmt.Errorf("failed to encode request: %w", err)
	}

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return models.Envelope{}, err
	}
	defer conn.Close()
	if deadline, ok := ctx.Deadline(); ok {
		if err := conn.SetDeadline(deadline); err != nil {
			return models.Envelope{}, err
		}
	}
	// ctx 取消时关闭连接，打断阻塞的读写
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	if err := WriteFrame(conn, frame); err != nil {
		return models.Envelope{}, fmt.Errorf("failed to send request: %w", err)
	}
	resp, err := ReadFrame(conn, 0)
	if err != nil {
		return models.Envelope{}, fmt.Errorf("failed to read response: %w", err)
	}
	var env models.Envelope
	if err := json.Unmarshal(resp, &env); err != nil {
		return models.Envelope{}, fmt.Errorf("failed to decode response: %w", err)
	}
	return env, nil
}
