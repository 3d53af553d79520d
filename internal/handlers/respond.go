package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/Dias221467/Chat_Server/pkg/apperr"
	"github.com/Dias221467/Chat_Server/pkg/logger"
	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var validate = validator.New()

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Log.Warnf("Failed to encode response: %v", err)
	}
}

// writeError maps a service error onto the taxonomy's HTTP status and a
// JSON body carrying kind + message for the client UI to branch on.
func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, apperr.HTTPStatus(err), map[string]string{
		"kind":  apperr.Kind(err),
		"error": err.Error(),
	})
}

func parseID(hex, field string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID, apperr.InvalidArgumentf("invalid %s", field)
	}
	return id, nil
}

func decodeAndValidate(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperr.InvalidArgumentf("invalid request payload")
	}
	defer r.Body.Close()
	if err := validate.Struct(dst); err != nil {
		return apperr.InvalidArgumentf("%v", err)
	}
	return nil
}
