// Package tasks defines the structure for tasks that are sent to Kafka.
package tasks

// ReportRenderTask represents an asynchronous PDF rendering job for a saved
// assessment chat. Rendering happens off the request path so that a renderer
// failure can never block the save itself.
type ReportRenderTask struct {
	ChatID uint `json:"chat_id"`
	UserID uint `json:"user_id"`
}
