package core

import "fmt"

// DomainError 是领域层的统一错误类型。
//
// 设计原则：
//   - 所有领域层错误都使用此类型
//   - 提供错误代码（Code）和消息（Message）
//   - 校验类错误额外携带字段名（Field），定位到具体越界字段
//   - 支持错误检查函数（IsXXX）
//
// 使用场景：
//   - Store 错误：NOT_FOUND, NOT_SUPPORTED
//   - 目录错误：NOT_FOUND（相似推荐引用了未知源饮品）
//   - 校验错误：INVALID_INPUT（负甜度、未知价格档位等结构性非法输入）
type DomainError struct {
	Code    string // 错误代码（如 "NOT_FOUND", "INVALID_INPUT"）
	Message string // 错误消息
	Module  string // 模块名称（如 "store", "catalog", "feature"）
	Field   string // 出错字段（仅校验类错误填写）
}

func (e *DomainError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: field %s: %s", e.Module, e.Field, e.Message)
	}
	return e.Message
}

// IsDomainError 检查错误是否为 DomainError 类型
func IsDomainError(err error) bool {
	if err == nil {
		return false
	}
	_, ok := err.(*DomainError)
	return ok
}

// GetDomainError 获取 DomainError，如果不是则返回 nil
func GetDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	if domainErr, ok := err.(*DomainError); ok {
		return domainErr
	}
	return nil
}

// NewDomainError 创建新的领域错误
func NewDomainError(module, code, message string) *DomainError {
	return &DomainError{
		Module:  module,
		Code:    code,
		Message: message,
	}
}

// NewFieldError 创建指明字段的校验错误（INVALID_INPUT）。
func NewFieldError(module, field, message string) *DomainError {
	return &DomainError{
		Module:  module,
		Code:    ErrorCodeInvalidInput,
		Message: message,
		Field:   field,
	}
}

// NewNotFoundError 创建资源不存在错误。
func NewNotFoundError(module, message string) *DomainError {
	return &DomainError{
		Module:  module,
		Code:    ErrorCodeNotFound,
		Message: message,
	}
}

// 错误代码常量
const (
	// 通用错误代码
	ErrorCodeNotFound      = "NOT_FOUND"      // 资源不存在
	ErrorCodeNotSupported  = "NOT_SUPPORTED"  // 操作不支持
	ErrorCodeUnavailable   = "UNAVAILABLE"    // 服务不可用
	ErrorCodeInvalidInput  = "INVALID_INPUT"  // 输入无效
	ErrorCodeInternalError = "INTERNAL_ERROR" // 内部错误
)

// 模块名称常量
const (
	ModuleStore       = "store"       // 存储模块
	ModuleCatalog     = "catalog"     // 饮品目录模块
	ModuleProfile     = "profile"     // 用户偏好模块
	ModuleInteraction = "interaction" // 交互记录模块
	ModuleFeature     = "feature"     // 特征模块
	ModuleCF          = "cf"          // 协同过滤模块
	ModuleRank        = "rank"        // 排序模块
	ModuleFilter      = "filter"      // 过滤模块
	ModuleEngine      = "engine"      // 引擎门面模块
	ModuleConfig      = "config"      // 配置模块
)

// 通用错误检查函数

// IsNotFound 检查错误是否为 NOT_FOUND
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == ErrorCodeNotFound
	}
	return false
}

// IsInvalidInput 检查错误是否为 INVALID_INPUT（校验失败）
func IsInvalidInput(err error) bool {
	if err == nil {
		return false
	}
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == ErrorCodeInvalidInput
	}
	return false
}

// IsNotSupported 检查错误是否为 NOT_SUPPORTED
func IsNotSupported(err error) bool {
	if err == nil {
		return false
	}
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == ErrorCodeNotSupported
	}
	return false
}

// IsUnavailable 检查错误是否为 UNAVAILABLE
func IsUnavailable(err error) bool {
	if err == nil {
		return false
	}
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == ErrorCodeUnavailable
	}
	return false
}
