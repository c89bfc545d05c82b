package api

import (
	"github.com/absmach/shapley/attributor"
	"github.com/absmach/shapley/pkg/api"
	"github.com/absmach/shapley/pkg/attribution"
	apiutil "github.com/absmach/supermq/api/http/util"
)

type attributeReq struct {
	attributor.RoundRequest `json:",inline"`
}

func (req *attributeReq) validate() error {
	return req.Validate()
}

type roundReq struct {
	round uint64
}

func (req *roundReq) validate() error {
	return nil
}

type recordReq struct {
	round  uint64
	method attribution.Method
}

func (req *recordReq) validate() error {
	if req.method == "" {
		return apiutil.ErrMissingID
	}
	_, err := attribution.ParseMethod(string(req.method))

	return err
}

type listRecordsReq struct {
	offset, limit uint64
}

func (req *listRecordsReq) validate() error {
	if req.limit > api.MaxLimitSize {
		return apiutil.ErrLimitSize
	}

	return nil
}
