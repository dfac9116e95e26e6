// Package rule 基于 go-playground/validator 的结构体校验，标签名为 rule.
//
// gin 的绑定校验与 ValidateStruct 共用同一个引擎，表单结构体上的 rule 标签在 ShouldBind 时同样生效.
package rule

import (
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// TagName 结构体校验标签.
const TagName = "rule"

// ValidationErrors 字段名到失败规则的映射.
type ValidationErrors map[string]string

var (
	inst *validator.Validate
	once sync.Once
)

func setup() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok || v == nil {
		v = validator.New()
	}

	v.SetTagName(TagName)
	registerDomainRules(v)

	inst = v
}

// Engine 返回共享的校验引擎.
func Engine() *validator.Validate {
	once.Do(setup)

	return inst
}

// ValidateStruct 校验结构体，错误可交给 Errors 整理.
func ValidateStruct(s any) error {
	return Engine().Struct(s)
}

// ValidateVar 按规则校验单个值，例如 ValidateVar(id, "asset_id").
func ValidateVar(field any, tag string) error {
	return Engine().Var(field, tag)
}
