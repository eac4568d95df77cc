// Package handlers provides HTTP handler implementations for the public API.
//
// This file implements the request boundary that guarantees every failure
// (a returned error, a panic, or a deferred result that fails after the
// handler body has returned) reaches respond() exactly once. Handlers are
// written as error-returning functions and never call respond() themselves,
// so double-handling and silent drops are impossible by construction. No
// retries happen at this layer; retry policy belongs to the collaborator
// that issued the operation (e.g. the AI client).
package handlers

import (
	"fmt"
	"sync"

	"github.com/gin-gonic/gin"
)

// handlerFunc is a request handler that reports failure by returning an
// error instead of writing a response.
type handlerFunc func(c *gin.Context) error

// wrap adapts a handlerFunc into a gin.HandlerFunc. A returned error and a
// panic are both forwarded to respond() exactly once.
func (h *Handlers) wrap(fn handlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		var once sync.Once
		forward := func(err error) {
			once.Do(func() { respond(c, err, h.mode) })
		}
		defer func() {
			if r := recover(); r != nil {
				forward(fmt.Errorf("panic: %v", r))
			}
		}()
		if err := fn(c); err != nil {
			forward(err)
		}
	}
}

// wrapDeferred adapts a handler whose outcome resolves after its body
// returns. The handler launches its work and hands back a result channel;
// the boundary suspends here until the deferred result arrives and forwards
// a late failure exactly once. A nil channel means the handler completed
// synchronously.
func (h *Handlers) wrapDeferred(fn func(c *gin.Context) <-chan error) gin.HandlerFunc {
	return func(c *gin.Context) {
		var once sync.Once
		forward := func(err error) {
			once.Do(func() { respond(c, err, h.mode) })
		}
		defer func() {
			if r := recover(); r != nil {
				forward(fmt.Errorf("panic: %v", r))
			}
		}()
		ch := fn(c)
		if ch == nil {
			return
		}
		if err := <-ch; err != nil {
			forward(err)
		}
	}
}
