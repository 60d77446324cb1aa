// Package validator validates map shaped input against JSON schemas.
//
// Schemas are plain Go maps compiled with [Compile]:
//
//	schema := validator.MustCompile(map[string]any{
//	    "type":     "object",
//	    "required": []string{"email"},
//	    "properties": map[string]any{
//	        "email": map[string]any{"type": "string", "format": "email"},
//	        "age":   map[string]any{"type": "integer"},
//	    },
//	}, validator.WithCoercion())
//
//	props, err := schema.Validate(map[string]any{"email": "a@b.c", "age": "42"})
//	// props["age"] == int64(42)
//
// Failures are returned as [ValidationErrors], one [FieldError] per violated
// constraint, with the offending field, the schema keyword and a message.
package validator
