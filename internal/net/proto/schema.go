package proto

import (
	"github.com/invopop/jsonschema"
)

// StateSchema reflects the snapshot broadcast shape so clients can validate
// against it.
func StateSchema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: true,
	}
	schema := reflector.Reflect(new(StateMessage))
	schema.Title = "Store State Broadcast"
	schema.Description = "Per-tick world snapshot sent to every connected client."
	return schema
}

// ClientSchema reflects the accepted client message envelope.
func ClientSchema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: true,
	}
	schema := reflector.Reflect(new(ClientMessage))
	schema.Title = "Client Message"
	schema.Description = "Envelope for strike, endDay, and heartbeat messages."
	return schema
}
