package api

import (
	"context"
	"errors"

	"github.com/absmach/shapley/attributor"
	pkgerrors "github.com/absmach/shapley/pkg/errors"
	apiutil "github.com/absmach/supermq/api/http/util"
	"github.com/go-kit/kit/endpoint"
)

func attributeEndpoint(svc attributor.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(attributeReq)
		if !ok {
			return roundResponse{}, errors.Join(apiutil.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return roundResponse{}, errors.Join(apiutil.ErrValidation, err)
		}

		res, err := svc.Attribute(ctx, req.RoundRequest)
		if err != nil {
			return roundResponse{}, err
		}

		return roundResponse{
			RoundResult: res,
			created:     true,
		}, nil
	}
}

func getRoundEndpoint(svc attributor.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(roundReq)
		if !ok {
			return roundResponse{}, errors.Join(apiutil.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return roundResponse{}, errors.Join(apiutil.ErrValidation, err)
		}

		res, err := svc.GetRound(ctx, req.round)
		if err != nil {
			return roundResponse{}, err
		}

		return roundResponse{RoundResult: res}, nil
	}
}

func getRecordEndpoint(svc attributor.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(recordReq)
		if !ok {
			return recordResponse{}, errors.Join(apiutil.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return recordResponse{}, errors.Join(apiutil.ErrValidation, err)
		}

		rec, err := svc.GetRecord(ctx, req.round, req.method)
		if err != nil {
			return recordResponse{}, err
		}

		return recordResponse{Record: rec}, nil
	}
}

func listRecordsEndpoint(svc attributor.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(listRecordsReq)
		if !ok {
			return listRecordsResponse{}, errors.Join(apiutil.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return listRecordsResponse{}, errors.Join(apiutil.ErrValidation, err)
		}

		page, err := svc.ListRecords(ctx, req.offset, req.limit)
		if err != nil {
			return listRecordsResponse{}, err
		}

		return listRecordsResponse{RecordPage: page}, nil
	}
}
