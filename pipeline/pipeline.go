// Package pipeline 把标定、插值、几何和汇总串成按名称调用的任务。
//
// Pipeline 创建后只读，多个 goroutine 可以同时调用。
package pipeline

import (
	"encoding/json"
	"fmt"
	"log"
	"runtime/debug"
	"sort"

	"github.com/go-playground/validator/v10"

	"go-soilwater/aggregate"
	"go-soilwater/calibration"
	"go-soilwater/config"
	"go-soilwater/estimator"
	"go-soilwater/geometry"
	"go-soilwater/models"
)

// Pipeline 带默认参数的估算流程
type Pipeline struct {
	cfg      config.Pipeline
	curve    calibration.Curve
	validate *validator.Validate
	tasks    map[string]task
}

// New 根据配置创建流程，零值字段使用默认值
func New(cfg config.Pipeline) *Pipeline {
	def := config.DefaultPipeline()
	if cfg.GridResolution == 0 {
		cfg.GridResolution = def.GridResolution
	}
	if cfg.SensorFullScale == 0 {
		cfg.SensorFullScale = def.SensorFullScale
	}
	if cfg.BulkDensity == 0 {
		cfg.BulkDensity = def.BulkDensity
	}
	if len(cfg.DefaultCoefficients) == 0 {
		cfg.DefaultCoefficients = def.DefaultCoefficients
	}
	cfg.DefaultCoefficients = append([]float64(nil), cfg.DefaultCoefficients...)

	// 请求结构体沿用 gin 的 binding 标签
	v := validator.New()
	v.SetTagName("binding")

	return &Pipeline{
		cfg:      cfg,
		curve:    calibration.Curve{Coefficients: cfg.DefaultCoefficients},
		validate: v,
		tasks:    registry(),
	}
}

// Calibrate 拟合传感器标定曲线
func (p *Pipeline) Calibrate(req models.CalibrationRequest) (models.CalibrationModel, error) {
	if err := p.check(&req); err != nil {
		return models.CalibrationModel{}, err
	}
	fullScale := req.SensorFullScale
	if fullScale == 0 {
		fullScale = p.cfg.SensorFullScale
	}
	return calibration.Fit(req.SensorReadings, req.MoisturePercentages, fullScale)
}

// TotalWater 三次插值后按 平均水分 × 容重 × 测量体体积 计算总水量(升)
func (p *Pipeline) TotalWater(req models.EstimationRequest) (float64, error) {
	if err := p.check(&req); err != nil {
		return 0, err
	}
	// 测量体形状决定体积，这个任务必须显式给出
	if req.Mode == "" {
		return 0, models.Validationf("mode is required")
	}
	shape, err := geometry.ParseShape(req.Mode)
	if err != nil {
		return 0, err
	}
	field, mask, err := p.estimateRaw(req, estimator.CubicName)
	if err != nil {
		return 0, err
	}
	spec := models.VolumeSpec{Shape: shape, Radius: req.Radius, Height: req.Height}
	return aggregate.AverageVolume(field, mask, spec, p.cfg.BulkDensity)
}

// AveragePercentage 三次插值后测量半径内的平均水分百分数
func (p *Pipeline) AveragePercentage(req models.EstimationRequest) (float64, error) {
	if err := p.check(&req); err != nil {
		return 0, err
	}
	if _, err := parseMode(req.Mode); err != nil {
		return 0, err
	}
	field, mask, err := p.estimateRaw(req, estimator.CubicName)
	if err != nil {
		return 0, err
	}
	return aggregate.MeanPercentage(field, mask)
}

// KrigedVolume 克里金插值后逐单元积分得到水量
func (p *Pipeline) KrigedVolume(req models.EstimationRequest) (float64, error) {
	if err := p.check(&req); err != nil {
		return 0, err
	}
	if _, err := parseMode(req.Mode); err != nil {
		return 0, err
	}
	field, mask, err := p.estimateRaw(req, estimator.KrigingName)
	if err != nil {
		return 0, err
	}
	return aggregate.IntegratedVolume(field, mask, req.Height)
}

// VolumeFromMoisture 已标定水分值克里金插值后逐单元积分
func (p *Pipeline) VolumeFromMoisture(req models.MoistureRequest) (float64, error) {
	if err := p.check(&req); err != nil {
		return 0, err
	}
	field, mask, err := p.estimateCalibrated(req, estimator.KrigingName)
	if err != nil {
		return 0, err
	}
	return aggregate.IntegratedVolume(field, mask, req.Height)
}

// PercentageFromMoisture 已标定水分值克里金插值后的平均水分百分数
func (p *Pipeline) PercentageFromMoisture(req models.MoistureRequest) (float64, error) {
	if err := p.check(&req); err != nil {
		return 0, err
	}
	field, mask, err := p.estimateCalibrated(req, estimator.KrigingName)
	if err != nil {
		return 0, err
	}
	return aggregate.MeanPercentage(field, mask)
}

// Run 解码载荷并执行任务，任何失败都转换成 error 信封；
// 返回的 error 供调用方区分错误类型
func (p *Pipeline) Run(name string, payload json.RawMessage) (env models.Envelope, err error) {
	t, ok := p.tasks[name]
	if !ok {
		return models.Failed("Unknown task"), fmt.Errorf("%w: %q", models.ErrUnknownTask, name)
	}

	defer func() {
		if r := recover(); r != nil {
			log.Printf("task %s panicked: %v\n%s", name, r, debug.Stack())
			err = fmt.Errorf("task %s panicked: %v", name, r)
			env = models.Failed(fmt.Sprintf("%s: %v", t.failure, r))
		}
	}()

	result, err := t.run(p, payload)
	if err != nil {
		return models.Failed(fmt.Sprintf("%s: %v", t.failure, err)), err
	}
	return models.Succeeded(t.success, result), nil
}

// Tasks 已注册的任务名称
func (p *Pipeline) Tasks() []string {
	names := make([]string, 0, len(p.tasks))
	for name := range p.tasks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// HasTask 任务是否已注册
func (p *Pipeline) HasTask(name string) bool {
	_, ok := p.tasks[name]
	return ok
}

func (p *Pipeline) check(req interface{}) error {
	if err := p.validate.Struct(req); err != nil {
		return models.Validationf("%v", err)
	}
	return nil
}

func (p *Pipeline) estimateRaw(req models.EstimationRequest, fallback string) (models.MoistureField, models.InclusionMask, error) {
	raw, err := models.ParseSensorRows(req.SensorReadings)
	if err != nil {
		return models.MoistureField{}, models.InclusionMask{}, err
	}
	curve := p.curve
	if len(req.CalibrationCoeffs) > 0 {
		curve = calibration.Curve{Coefficients: req.CalibrationCoeffs, FullScale: req.SensorFullScale}
	}
	samples, err := calibration.CalibrateSamples(curve, raw)
	if err != nil {
		return models.MoistureField{}, models.InclusionMask{}, err
	}
	return p.estimate(samples, req.Radius, req.Strategy, fallback)
}

func (p *Pipeline) estimateCalibrated(req models.MoistureRequest, fallback string) (models.MoistureField, models.InclusionMask, error) {
	samples, err := models.ParseMoistureRows(req.CalibratedMoisture)
	if err != nil {
		return models.MoistureField{}, models.InclusionMask{}, err
	}
	return p.estimate(samples, req.Radius, req.Strategy, fallback)
}

func (p *Pipeline) estimate(samples []models.CalibratedSample, radius float64, requested, fallback string) (models.MoistureField, models.InclusionMask, error) {
	name := fallback
	switch {
	case requested != "":
		name = requested
	case p.cfg.DefaultStrategy != "":
		name = p.cfg.DefaultStrategy
	}
	strategy, err := estimator.Lookup(name)
	if err != nil {
		return models.MoistureField{}, models.InclusionMask{}, err
	}
	grid, field, err := estimator.Estimate(strategy, samples, p.cfg.GridResolution)
	if err != nil {
		return models.MoistureField{}, models.InclusionMask{}, err
	}
	mask, err := geometry.Mask(grid, radius)
	if err != nil {
		return models.MoistureField{}, models.InclusionMask{}, err
	}
	return field, mask, nil
}

// parseMode 空值按圆柱处理
func parseMode(mode string) (models.Shape, error) {
	if mode == "" {
		return models.Cylinder, nil
	}
	return geometry.ParseShape(mode)
}
