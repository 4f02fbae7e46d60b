package sheet

import (
	"errors"
	"fmt"
)

// ErrorKind 远程调用错误分类
type ErrorKind string

const (
	// KindConfig 缺少脚本地址、文件夹 ID 等配置
	KindConfig ErrorKind = "config"
	// KindTransport 网络错误或非 2xx 响应
	KindTransport ErrorKind = "transport"
	// KindPermission 返回了登录页等 HTML，通常是部署权限不对
	KindPermission ErrorKind = "permission"
	// KindFormat 响应无法解析
	KindFormat ErrorKind = "format"
	// KindRemote 脚本返回 status=error
	KindRemote ErrorKind = "remote"
	// KindUnsupported 脚本版本过旧，不支持该操作
	KindUnsupported ErrorKind = "unsupported"
)

// Error 远程调用错误
type Error struct {
	Kind    ErrorKind
	Action  string
	Message string
	Err     error
}

func (e *Error) Error() string {
	prefix := string(e.Kind)
	if e.Action != "" {
		prefix = fmt.Sprintf("%s %s", e.Action, e.Kind)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", prefix, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind ErrorKind, action, message string, err error) *Error {
	return &Error{Kind: kind, Action: action, Message: message, Err: err}
}

// KindOf 返回错误分类，非远程错误返回空
func KindOf(err error) ErrorKind {
	var sheetErr *Error
	if errors.As(err, &sheetErr) {
		return sheetErr.Kind
	}
	return ""
}

// IsKind 判断错误是否属于指定分类
func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}
