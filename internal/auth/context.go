package auth

import (
	"context"

	"github.com/meetupbot/meetupbot/internal/model"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const robotContextKey contextKey = "robot"

// ContextWithRobot adds the authenticated robot to the context.
func ContextWithRobot(ctx context.Context, robot *model.Robot) context.Context {
	return context.WithValue(ctx, robotContextKey, robot)
}

// RobotFromContext retrieves the authenticated robot.
// Returns nil if the request was not authenticated.
func RobotFromContext(ctx context.Context) *model.Robot {
	robot, ok := ctx.Value(robotContextKey).(*model.Robot)
	if !ok {
		return nil
	}
	return robot
}

// SourceFromContext names the submitter for the submission log:
// "robot:<prefix>" for authenticated robots, "web" otherwise.
func SourceFromContext(ctx context.Context) string {
	if robot := RobotFromContext(ctx); robot != nil {
		return robot.Source()
	}
	return model.SourceWeb
}
