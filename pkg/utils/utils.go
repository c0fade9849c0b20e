package utils

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/nimeshabuddhika/account-service-go/pkg"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// IsEmpty checks if a string is empty.
func IsEmpty(s string) bool {
	return s == ""
}

func GetTraceID(c *gin.Context) (string, error) {
	traceID := c.GetString(pkg.TraceId)
	if IsEmpty(traceID) {
		return "", errors.New("trace id is empty")
	}
	return traceID, nil
}

// ParseStructEnv binds env vars to struct fields using a mapstructure tag
func ParseStructEnv(cfg interface{}) error {
	v := reflect.ValueOf(cfg).Elem()
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("mapstructure")
		if err := viper.BindEnv(tag); err != nil {
			return err
		}
	}
	return viper.Unmarshal(cfg)
}

// FormatConfigErrors logs every invalid config field with its failed rule and
// returns a single error naming the offending env keys.
func FormatConfigErrors(logger *zap.Logger, err error, cfg interface{}) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	t := reflect.TypeOf(cfg)
	keys := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		key := fe.StructField()
		if f, ok := t.FieldByName(fe.StructField()); ok {
			if tag := f.Tag.Get("mapstructure"); !IsEmpty(tag) {
				key = tag
			}
		}
		logger.Error("invalid_config_value",
			zap.String("field", key),
			zap.String("rule", fe.Tag()),
		)
		keys = append(keys, key)
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(keys, ", "))
}
