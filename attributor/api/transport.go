package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/absmach/shapley/attributor"
	"github.com/absmach/shapley/pkg/api"
	"github.com/absmach/shapley/pkg/attribution"
	"github.com/absmach/supermq"
	apiutil "github.com/absmach/supermq/api/http/util"
	"github.com/go-chi/chi/v5"
	kithttp "github.com/go-kit/kit/transport/http"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	maxBodySize = 1024 * 1024 * 100
	roundKey    = "round"
	methodKey   = "method"
)

func MakeHandler(svc attributor.Service, logger *slog.Logger, instanceID string) http.Handler {
	mux := chi.NewRouter()

	opts := []kithttp.ServerOption{
		kithttp.ServerErrorEncoder(apiutil.LoggingErrorEncoder(logger, api.EncodeError)),
	}

	mux.Route("/rounds", func(r chi.Router) {
		r.Post("/", otelhttp.NewHandler(kithttp.NewServer(
			attributeEndpoint(svc),
			decodeAttributeReq,
			api.EncodeResponse,
			opts...,
		), "attribute").ServeHTTP)
		r.Get("/", otelhttp.NewHandler(kithttp.NewServer(
			listRecordsEndpoint(svc),
			decodeListRecordsReq,
			api.EncodeResponse,
			opts...,
		), "list-records").ServeHTTP)
		r.Route("/{round}", func(r chi.Router) {
			r.Get("/", otelhttp.NewHandler(kithttp.NewServer(
				getRoundEndpoint(svc),
				decodeRoundReq,
				api.EncodeResponse,
				opts...,
			), "get-round").ServeHTTP)
			r.Get("/{method}", otelhttp.NewHandler(kithttp.NewServer(
				getRecordEndpoint(svc),
				decodeRecordReq,
				api.EncodeResponse,
				opts...,
			), "get-record").ServeHTTP)
		})
	})

	mux.Get("/health", supermq.Health("attributor", instanceID))
	mux.Handle("/metrics", promhttp.Handler())

	return mux
}

// decodeAttributeReq accepts JSON or CBOR bodies.
func decodeAttributeReq(_ context.Context, r *http.Request) (any, error) {
	var req attributeReq
	contentType := r.Header.Get("Content-Type")
	switch {
	case strings.Contains(contentType, api.ContentType):
		if err := json.NewDecoder(io.LimitReader(r.Body, maxBodySize)).Decode(&req); err != nil {
			return nil, errors.Join(err, apiutil.ErrValidation)
		}
	case strings.Contains(contentType, api.CBORContentType):
		data, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
		if err != nil {
			return nil, err
		}
		if err := api.CBORDecMode.Unmarshal(data, &req.RoundRequest); err != nil {
			return nil, errors.Join(err, apiutil.ErrValidation)
		}
	default:
		return nil, errors.Join(apiutil.ErrValidation, apiutil.ErrUnsupportedContentType)
	}

	return req, nil
}

func decodeRoundReq(_ context.Context, r *http.Request) (any, error) {
	round, err := parseRound(r)
	if err != nil {
		return nil, err
	}

	return roundReq{round: round}, nil
}

func decodeRecordReq(_ context.Context, r *http.Request) (any, error) {
	round, err := parseRound(r)
	if err != nil {
		return nil, err
	}

	return recordReq{
		round:  round,
		method: attribution.Method(chi.URLParam(r, methodKey)),
	}, nil
}

func decodeListRecordsReq(_ context.Context, r *http.Request) (any, error) {
	o, err := apiutil.ReadNumQuery[uint64](r, api.OffsetKey, api.DefOffset)
	if err != nil {
		return nil, errors.Join(apiutil.ErrValidation, err)
	}

	l, err := apiutil.ReadNumQuery[uint64](r, api.LimitKey, api.DefLimit)
	if err != nil {
		return nil, errors.Join(apiutil.ErrValidation, err)
	}

	return listRecordsReq{
		offset: o,
		limit:  l,
	}, nil
}

func parseRound(r *http.Request) (uint64, error) {
	round, err := strconv.ParseUint(chi.URLParam(r, roundKey), 10, 64)
	if err != nil {
		return 0, errors.Join(apiutil.ErrValidation, err)
	}

	return round, nil
}
