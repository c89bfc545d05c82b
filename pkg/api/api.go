package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/absmach/shapley/pkg/attribution"
	"github.com/absmach/shapley/pkg/coalition"
	pkgerrors "github.com/absmach/shapley/pkg/errors"
	"github.com/absmach/shapley/pkg/fl"
	"github.com/absmach/shapley/pkg/partition"
	"github.com/absmach/shapley/pkg/utility"
	"github.com/absmach/supermq"
	apiutil "github.com/absmach/supermq/api/http/util"
	"github.com/fxamacker/cbor/v2"
)

const (
	OffsetKey = "offset"
	LimitKey  = "limit"
	DefOffset = 0
	DefLimit  = 100

	ContentType     = "application/json"
	CBORContentType = "application/cbor"

	MaxLimitSize = 100
)

// CBOR modes read and write coalition keys as the same comma separated
// member lists used in JSON, so {"0,1": 0.6} decodes into a utility table.
var (
	CBORDecMode = mustDecMode(cbor.DecOptions{TextUnmarshaler: cbor.TextUnmarshalerTextString})
	CBOREncMode = mustEncMode(cbor.EncOptions{TextMarshaler: cbor.TextMarshalerTextString})
)

func mustDecMode(opts cbor.DecOptions) cbor.DecMode {
	dm, err := opts.DecMode()
	if err != nil {
		panic(err)
	}

	return dm
}

func mustEncMode(opts cbor.EncOptions) cbor.EncMode {
	em, err := opts.EncMode()
	if err != nil {
		panic(err)
	}

	return em
}

type errorRes struct {
	Error string `json:"error"`
}

func EncodeResponse(_ context.Context, w http.ResponseWriter, response any) error {
	if ar, ok := response.(supermq.Response); ok {
		for k, v := range ar.Headers() {
			w.Header().Set(k, v)
		}
		w.Header().Set("Content-Type", ContentType)
		w.WriteHeader(ar.Code())

		if ar.Empty() {
			return nil
		}
	}

	return json.NewEncoder(w).Encode(response)
}

func EncodeError(_ context.Context, err error, w http.ResponseWriter) {
	w.Header().Set("Content-Type", ContentType)
	w.WriteHeader(StatusCode(err))

	if err := json.NewEncoder(w).Encode(errorRes{Error: err.Error()}); err != nil {
		w.WriteHeader(http.StatusInternalServerError)
	}
}

// StatusCode maps domain errors onto HTTP status codes.
func StatusCode(err error) int {
	switch {
	case errors.Is(err, apiutil.ErrUnsupportedContentType):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, apiutil.ErrValidation),
		errors.Is(err, pkgerrors.ErrEmptyKey),
		errors.Is(err, pkgerrors.ErrInvalidData),
		errors.Is(err, attribution.ErrInvalidConfig),
		errors.Is(err, attribution.ErrUnknownMethod),
		errors.Is(err, attribution.ErrEmptyRound),
		errors.Is(err, coalition.ErrParticipantOutOfRange),
		errors.Is(err, coalition.ErrMalformedKey),
		errors.Is(err, partition.ErrInvalidPartCount),
		errors.Is(err, partition.ErrNoParticipants):
		return http.StatusBadRequest
	case errors.Is(err, pkgerrors.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, pkgerrors.ErrEntityExists):
		return http.StatusConflict
	case errors.Is(err, attribution.ErrIllConditioned),
		errors.Is(err, utility.ErrUnknownCoalition),
		errors.Is(err, utility.ErrInvalidUtility),
		errors.Is(err, fl.ErrMissingUpdate),
		errors.Is(err, fl.ErrShapeMismatch),
		errors.Is(err, fl.ErrEmptyDataset):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
