package controllers

import (
	"encoding/json"
	"errors"
	"log"
	"strconv"

	"github.com/gin-gonic/gin"

	"go-soilwater/models"
	"go-soilwater/repository"
	"go-soilwater/utils"
)

// TaskController 通过 HTTP 执行估算任务并保存历史
type TaskController struct {
	Runner  TaskRunner
	Records RecordRepository
}

// NewTaskController 创建一个新的TaskController实例
func NewTaskController(runner TaskRunner, records RecordRepository) *TaskController {
	return &TaskController{Runner: runner, Records: records}
}

// TaskResponse 任务结果信封加上历史记录 ID
type TaskResponse struct {
	models.Envelope
	RecordID string `json:"recordId,omitempty"`
}

// RunTask 执行 URL 中指定的任务，请求体就是任务载荷
func (c *TaskController) RunTask(ctx *gin.Context) {
	userID := ctx.GetInt("userID")
	name := ctx.Param("task")

	payload, err := ctx.GetRawData()
	if err != nil {
		utils.BadRequest(ctx, "读取请求体失败")
		return
	}

	env, runErr := c.Runner.Run(name, json.RawMessage(payload))
	if runErr != nil {
		log.Printf("Task %q for user %d failed (%s): %v", name, userID, models.Kind(runErr), runErr)
	}
	resp := TaskResponse{Envelope: env}

	// 未注册的任务不落库
	if !errors.Is(runErr, models.ErrUnknownTask) {
		if id, err := c.save(ctx, userID, name, payload, env); err != nil {
			log.Printf("Failed to save estimation record for task %q: %v", name, err)
		} else {
			resp.RecordID = id
		}
	}

	ctx.JSON(utils.StatusFor(runErr), resp)
}

func (c *TaskController) save(ctx *gin.Context, userID int, task string, payload []byte, env models.Envelope) (string, error) {
	publicID, err := utils.NewPublicID()
	if err != nil {
		return "", err
	}
	result, err := json.Marshal(env.Result)
	if err != nil {
		return "", err
	}
	rec := &models.EstimationRecord{
		PublicID: publicID,
		UserID:   userID,
		Task:     task,
		Status:   env.Status,
		Message:  env.Message,
		Payload:  string(payload),
		Result:   string(result),
	}
	if err := c.Records.SaveEstimation(ctx.Request.Context(), rec); err != nil {
		return "", err
	}
	return publicID, nil
}

// GetRecords 获取任务记录列表
func (c *TaskController) GetRecords(ctx *gin.Context) {
	userID := ctx.GetInt("userID")

	// 获取查询参数
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(ctx.DefaultQuery("pageSize", "10"))
	filter := repository.EstimationFilter{
		Task: ctx.Query("task"),
		Page: repository.Page{Number: page, Size: pageSize}.Normalize(),
	}

	records, total, err := c.Records.ListEstimations(ctx.Request.Context(), userID, filter)
	if err != nil {
		log.Printf("Failed to list estimation records: %v", err)
		utils.InternalServerError(ctx, "查询记录失败")
		return
	}
	utils.SuccessWithPagination(ctx, records, total, filter.Page.Number, filter.Page.Size)
}

// GetRecord 获取单条任务记录
func (c *TaskController) GetRecord(ctx *gin.Context) {
	userID := ctx.GetInt("userID")
	id := ctx.Query("id")
	if !utils.ValidatePublicID(id) {
		utils.BadRequest(ctx, "记录ID格式错误")
		return
	}

	rec, err := c.Records.GetEstimation(ctx.Request.Context(), userID, id)
	if errors.Is(err, repository.ErrNotFound) {
		utils.NotFound(ctx, "记录不存在")
		return
	}
	if err != nil {
		log.Printf("Failed to get estimation record %s: %v", id, err)
		utils.InternalServerError(ctx, "查询记录失败")
		return
	}
	utils.Success(ctx, rec)
}
