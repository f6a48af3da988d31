package persisted

import (
	"context"
	"errors"

	"github.com/99designs/gqlgen/graphql"
	"github.com/vektah/gqlparser/v2/gqlerror"
)

const errNotFoundCode = "PERSISTED_OPERATION_NOT_FOUND"

var _ graphql.HandlerExtension = Extension{}
var _ graphql.OperationParameterMutator = Extension{}

// Extension fills in the query of requests that only carry an operationName.
//
//	srv := handler.NewDefaultServer(es)
//	srv.Use(persisted.Extension{Store: store})
type Extension struct {
	Store *Store
}

func (Extension) ExtensionName() string {
	return "PersistedOperations"
}

func (e Extension) Validate(schema graphql.ExecutableSchema) error {
	if e.Store == nil {
		return errors.New("persisted operations store is required")
	}
	return nil
}

func (e Extension) MutateOperationParameters(ctx context.Context, rawParams *graphql.RawParams) *gqlerror.Error {
	if rawParams.Query != "" || rawParams.OperationName == "" {
		return nil
	}

	query, ok := e.Store.Query(rawParams.OperationName)
	if !ok {
		gErr := gqlerror.Errorf("persisted operation %s not found", rawParams.OperationName)
		gErr.Extensions = map[string]interface{}{
			"code": errNotFoundCode,
		}
		return gErr
	}

	rawParams.Query = query

	return nil
}
