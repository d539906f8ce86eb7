package models

import (
	"errors"
	"fmt"
)

// 估算流程的错误分类，调用方用 errors.Is 判断
var (
	ErrValidation   = errors.New("validation error")
	ErrCalibration  = errors.New("calibration error")
	ErrEstimation   = errors.New("estimation error")
	ErrEmptyRegion  = errors.New("empty region error")
	ErrInvalidShape = errors.New("invalid shape error")
	ErrUnknownTask  = errors.New("unknown task")
)

// Validationf 构造一个 ErrValidation 错误
func Validationf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// Kind 返回错误所属的分类名称，未知分类返回 "internal error"
func Kind(err error) string {
	for _, k := range []error{ErrValidation, ErrCalibration, ErrEstimation, ErrEmptyRegion, ErrInvalidShape, ErrUnknownTask} {
		if errors.Is(err, k) {
			return k.Error()
		}
	}
	return "internal error"
}
