package controllers

import (
	"log"

	"github.com/gin-gonic/gin"

	"go-soilwater/models"
	"go-soilwater/utils"
)

// CalibrationController 传感器标定的拟合和保存
type CalibrationController struct {
	Runner  TaskRunner
	Records RecordRepository
}

// NewCalibrationController 创建一个新的CalibrationController实例
func NewCalibrationController(runner TaskRunner, records RecordRepository) *CalibrationController {
	return &CalibrationController{Runner: runner, Records: records}
}

// SaveCalibrationRequest 拟合并保存标定的请求
type SaveCalibrationRequest struct {
	Sensor string `json:"sensor" binding:"required,max=255"`
	models.CalibrationRequest
}

// SaveCalibration 拟合标定曲线并保存到传感器名下
func (c *CalibrationController) SaveCalibration(ctx *gin.Context) {
	userID := ctx.GetInt("userID")
	var req SaveCalibrationRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(ctx, err.Error())
		return
	}

	model, err := c.Runner.Calibrate(req.CalibrationRequest)
	if err != nil {
		utils.Fail(ctx, utils.StatusFor(err), err.Error())
		return
	}

	rec := &models.CalibrationRecord{UserID: userID, Sensor: req.Sensor, Model: model}
	if err := c.Records.SaveCalibration(ctx.Request.Context(), rec); err != nil {
		log.Printf("Failed to save calibration for sensor %q: %v", req.Sensor, err)
		utils.InternalServerError(ctx, "保存标定失败")
		return
	}
	utils.Created(ctx, rec)
}

// GetCalibrations 获取传感器的历史标定
func (c *CalibrationController) GetCalibrations(ctx *gin.Context) {
	userID := ctx.GetInt("userID")
	records, err := c.Records.ListCalibrations(ctx.Request.Context(), userID, ctx.Query("sensor"))
	if err != nil {
		log.Printf("Failed to list calibrations: %v", err)
		utils.InternalServerError(ctx, "查询标定失败")
		return
	}
	utils.Success(ctx, records)
}
