package api

import (
	"fmt"
	"net/http"

	"github.com/absmach/shapley/attributor"
	"github.com/absmach/shapley/pkg/attribution"
	"github.com/absmach/supermq"
)

var (
	_ supermq.Response = (*roundResponse)(nil)
	_ supermq.Response = (*recordResponse)(nil)
	_ supermq.Response = (*listRecordsResponse)(nil)
)

type roundResponse struct {
	attributor.RoundResult
	created bool
}

func (res roundResponse) Code() int {
	if res.created {
		return http.StatusCreated
	}

	return http.StatusOK
}

func (res roundResponse) Headers() map[string]string {
	if res.created {
		return map[string]string{
			"Location": fmt.Sprintf("/rounds/%d", res.Round),
		}
	}

	return map[string]string{}
}

func (res roundResponse) Empty() bool {
	return false
}

type recordResponse struct {
	attribution.Record
}

func (res recordResponse) Code() int {
	return http.StatusOK
}

func (res recordResponse) Headers() map[string]string {
	return map[string]string{}
}

func (res recordResponse) Empty() bool {
	return false
}

type listRecordsResponse struct {
	attributor.RecordPage
}

func (res listRecordsResponse) Code() int {
	return http.StatusOK
}

func (res listRecordsResponse) Headers() map[string]string {
	return map[string]string{}
}

func (res listRecordsResponse) Empty() bool {
	return false
}
