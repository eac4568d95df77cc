// Route registration. Every endpoint is mounted through the request
// boundary (wrap / wrapDeferred), which is what guarantees single-dispatch
// error handling for the whole API surface.
package handlers

import "github.com/gin-gonic/gin"

// Register mounts all letter, goal, and reflection endpoints on g.
func (h *Handlers) Register(g *gin.RouterGroup) {
	// Letters
	g.POST("/letters", h.wrap(h.CreateLetter))
	g.GET("/letters", h.wrap(h.ListLetters))
	g.GET("/letters/:id", h.wrap(h.GetLetter))
	g.PUT("/letters/:id/content", h.wrap(h.UpdateLetterContent))
	g.PUT("/letters/:id/schedule", h.wrap(h.RescheduleLetter))
	g.POST("/letters/:id/deliver", h.wrap(h.DeliverLetter))
	g.DELETE("/letters/:id", h.wrap(h.DeleteLetter))

	// Reflections
	g.POST("/letters/:id/reflections", h.wrap(h.AddReflection))
	g.POST("/letters/:id/reflections/prompt", h.wrapDeferred(h.ReflectionPrompt))

	// Goals
	g.PUT("/letters/:id/goals/:goalID/status", h.wrap(h.UpdateGoalStatus))
	g.POST("/letters/:id/goals/:goalID/carry-forward", h.wrap(h.CarryForwardGoal))
}
