package services

import (
	"errors"
)

// 错误分类，handlers/base.go 统一映射到 HTTP 状态码。
// 唯一键冲突（toggle 并发竞态）不在这里：聚合器内部消化，不往上抛。
var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrNotFound        = errors.New("not found")
	ErrForbidden       = errors.New("forbidden")
	ErrContentTooLarge = errors.New("content too large")
)
