package models

// User-facing texts of the EcoFriend panel.
const (
	MsgMissingCredential = "Por favor, ingrese su clave API para comenzar."
	MsgInvalidCredential = "Clave API inválida. Ingrese una nueva clave para continuar."
	MsgIndexUnavailable  = "El modelo RAG no se pudo cargar. Por favor, recargue la página o contacte al soporte."
	MsgQueryFailure      = "Error al realizar la consulta"
	MsgAnswer            = "Respuesta:"
)

// SourceIDKey is the document metadata key carrying the index document id.
const SourceIDKey = "id"

// PromptResponse is what a query hands back to the CLI and the web layer.
type PromptResponse struct {
	Query   string   `json:"query"`
	Source  string   `json:"source,omitempty"`
	Content string   `json:"content"`
	Sources []Source `json:"sources,omitempty"`
}

// Source is a retrieved document that was given to the model as context.
type Source struct {
	ID       string            `json:"id"`
	Content  string            `json:"content"`
	Metadata map[string]string `json:"metadata,omitempty"`
	Score    float32           `json:"score"`
}
