package handlers

import (
	"reflect"
	"strings"

	"github.com/gin-gonic/gin/binding"
	validator "github.com/go-playground/validator/v10"
)

// Binding failures must report the JSON name a client actually sent, not the
// Go struct field name, so the fields map in error envelopes matches the
// request wire shape.
func init() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterTagNameFunc(func(fd reflect.StructField) string {
		name := strings.SplitN(fd.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fd.Name
		}
		return name
	})
}
