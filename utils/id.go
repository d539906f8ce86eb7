package utils

import (
	"strings"

	gonanoid "github.com/matoous/go-nanoid"
)

const publicIDAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// PublicIDLength 记录公开 ID 的长度
const PublicIDLength = 16

// NewPublicID 生成对外暴露的记录 ID，数据库自增 ID 不出现在 API 里
func NewPublicID() (string, error) {
	return gonanoid.Generate(publicIDAlphabet, PublicIDLength)
}

// ValidatePublicID 验证公开 ID 格式
func ValidatePublicID(id string) bool {
	if len(id) != PublicIDLength {
		return false
	}
	for _, char := range id {
		if !strings.ContainsRune(publicIDAlphabet, char) {
			return false
		}
	}
	return true
}
