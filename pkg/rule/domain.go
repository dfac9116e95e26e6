package rule

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// assetIDPattern 资产 ID 只允许小写字母、数字、下划线和连字符.
var assetIDPattern = regexp.MustCompile(`^[a-z0-9_\-]+$`)

// registerDomainRules 注册业务规则：
//   - asset_id: 资产 ID 格式
//   - asset_type: monster/map/skill/misc 之一
func registerDomainRules(v *validator.Validate) {
	_ = v.RegisterValidation("asset_id", func(fl validator.FieldLevel) bool {
		return assetIDPattern.MatchString(fl.Field().String())
	})

	v.RegisterAlias("asset_type", "oneof=monster map skill misc")
}

// IsAssetID 判断字符串是否为合法资产 ID.
func IsAssetID(s string) bool {
	return assetIDPattern.MatchString(s)
}

// Errors 把校验错误整理为 字段 -> 描述.
func Errors(err error) ValidationErrors {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return nil
	}

	out := make(ValidationErrors, len(ve))

	for _, fe := range ve {
		msg := fe.Tag()
		if fe.Param() != "" {
			msg = fmt.Sprintf("%s=%s", fe.Tag(), fe.Param())
		}

		out[fe.Field()] = msg
	}

	return out
}

// String 以稳定顺序拼接错误.
func (v ValidationErrors) String() string {
	parts := make([]string, 0, len(v))
	for field, msg := range v {
		parts = append(parts, field+": "+msg)
	}

	sort.Strings(parts)

	return strings.Join(parts, "; ")
}
