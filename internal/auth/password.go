package auth

import (
	"crypto/subtle"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const bcryptPrefix = "$2"

// HashPassword 生成 bcrypt 哈希
func HashPassword(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// IsHashed 判断存储的密码是否为 bcrypt 哈希
func IsHashed(stored string) bool {
	return strings.HasPrefix(stored, bcryptPrefix)
}

// VerifyPassword 校验密码。表格同步来的旧数据为明文，直接比较
func VerifyPassword(stored, plain string) bool {
	if stored == "" {
		return false
	}
	if IsHashed(stored) {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(plain)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(plain)) == 1
}
