package cielo

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// JSONSerializer implementa ports.Serializer com encoding/json
type JSONSerializer struct{}

// Serialize converte v em JSON
func (JSONSerializer) Serialize(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("erro ao serializar body: %w", err)
	}
	return data, nil
}

// Deserialize decodifica JSON em target. Corpo vazio é tratado como erro.
func (JSONSerializer) Deserialize(data []byte, target any) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return fmt.Errorf("erro ao decodificar resposta: corpo vazio")
	}
	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("erro ao decodificar resposta: %w", err)
	}
	return nil
}
