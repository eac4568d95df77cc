// Goal HTTP handlers.
//
// This file exposes the REST endpoints for the goal lifecycle:
//   - PUT  /letters/{id}/goals/{goalID}/status        (status transition)
//   - POST /letters/{id}/goals/{goalID}/carry-forward (link into new letter)
//
// Plain transitions cannot reach carriedForward; that status is only
// produced by the carry-forward endpoint, which also creates the successor
// goal and returns it.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/futureletters/backend/internal/domain"
)

// UpdateGoalStatusRequest is the JSON payload for a goal status transition.
type UpdateGoalStatusRequest struct {
	// Status is the target status: accomplished, inProgress, or abandoned.
	Status string `json:"status" binding:"required,oneof=accomplished inProgress abandoned" example:"accomplished"`
	// Reflection optionally records why (≤500 chars).
	Reflection *string `json:"reflection,omitempty"`
}

// CarryForwardRequest is the JSON payload for carrying a goal into another
// letter.
type CarryForwardRequest struct {
	// DestinationLetterID is the letter that receives the successor goal.
	DestinationLetterID string `json:"destination_letter_id" binding:"required" format:"uuid"`
	// Text optionally rewords the successor; defaults to the origin's text.
	Text string `json:"text,omitempty"`
}

// UpdateGoalStatus godoc
// @ID          updateGoalStatus
// @Summary     Transition a goal's status
// @Description Moves a goal to accomplished, inProgress, or abandoned. Terminal goals reject further changes.
// @Tags        Goals
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"
// @Param       id         path    string  true  "Letter ID (UUID)" format(uuid)
// @Param       goalID     path    string  true  "Goal ID (UUID)"   format(uuid)
// @Param       body       body    handlers.UpdateGoalStatusRequest true "Target status"
//
// @Success     200  {object} domain.Goal
// @Failure     400  {object} handlers.ErrorResponse "Transition not allowed"
// @Failure     404  {object} handlers.ErrorResponse "Letter or goal not found"
// @Router      /letters/{id}/goals/{goalID}/status [put]
func (h *Handlers) UpdateGoalStatus(c *gin.Context) error {
	letterID, err := parseID(c.Param("id"))
	if err != nil {
		return err
	}
	goalID, err := parseID(c.Param("goalID"))
	if err != nil {
		return err
	}
	var req UpdateGoalStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return err
	}

	g, err := h.goalSvc.UpdateStatus(c.Request.Context(), userID(c), letterID, goalID,
		domain.GoalStatus(req.Status), req.Reflection)
	if err != nil {
		return mapServiceError(err)
	}
	ok(c, http.StatusOK, g)
	return nil
}

// CarryForwardGoal godoc
// @ID          carryForwardGoal
// @Summary     Carry a goal into another letter
// @Description Marks the goal carriedForward and creates a pending successor in the destination letter, linking both sides.
// @Tags        Goals
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"
// @Param       id         path    string  true  "Letter ID (UUID)" format(uuid)
// @Param       goalID     path    string  true  "Goal ID (UUID)"   format(uuid)
// @Param       body       body    handlers.CarryForwardRequest true "Destination"
//
// @Success     201  {object} domain.Goal "The successor goal"
// @Failure     400  {object} handlers.ErrorResponse "Transition not allowed / destination full"
// @Failure     404  {object} handlers.ErrorResponse "Letter or goal not found"
// @Router      /letters/{id}/goals/{goalID}/carry-forward [post]
func (h *Handlers) CarryForwardGoal(c *gin.Context) error {
	letterID, err := parseID(c.Param("id"))
	if err != nil {
		return err
	}
	goalID, err := parseID(c.Param("goalID"))
	if err != nil {
		return err
	}
	var req CarryForwardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return err
	}
	destID, err := parseID(req.DestinationLetterID)
	if err != nil {
		return err
	}

	successor, err := h.goalSvc.CarryForward(c.Request.Context(), userID(c), letterID, goalID, destID, req.Text)
	if err != nil {
		return mapServiceError(err)
	}
	ok(c, http.StatusCreated, successor)
	return nil
}
