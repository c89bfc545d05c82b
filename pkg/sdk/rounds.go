package sdk

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/absmach/shapley/attributor"
	"github.com/absmach/shapley/pkg/attribution"
)

const roundsEndpoint = "/rounds"

func (sdk *attributorSDK) Attribute(req attributor.RoundRequest) (attributor.RoundResult, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return attributor.RoundResult{}, err
	}

	url := sdk.attributorURL + roundsEndpoint

	body, err := sdk.processRequest(http.MethodPost, url, data, http.StatusCreated)
	if err != nil {
		return attributor.RoundResult{}, err
	}

	var res attributor.RoundResult
	if err := json.Unmarshal(body, &res); err != nil {
		return attributor.RoundResult{}, err
	}

	return res, nil
}

func (sdk *attributorSDK) GetRound(round uint64) (attributor.RoundResult, error) {
	url := fmt.Sprintf("%s%s/%d", sdk.attributorURL, roundsEndpoint, round)

	body, err := sdk.processRequest(http.MethodGet, url, nil, http.StatusOK)
	if err != nil {
		return attributor.RoundResult{}, err
	}

	var res attributor.RoundResult
	if err := json.Unmarshal(body, &res); err != nil {
		return attributor.RoundResult{}, err
	}

	return res, nil
}

func (sdk *attributorSDK) GetRecord(round uint64, method attribution.Method) (attribution.Record, error) {
	url := fmt.Sprintf("%s%s/%d/%s", sdk.attributorURL, roundsEndpoint, round, method)

	body, err := sdk.processRequest(http.MethodGet, url, nil, http.StatusOK)
	if err != nil {
		return attribution.Record{}, err
	}

	var rec attribution.Record
	if err := json.Unmarshal(body, &rec); err != nil {
		return attribution.Record{}, err
	}

	return rec, nil
}

func (sdk *attributorSDK) ListRecords(offset, limit uint64) (attributor.RecordPage, error) {
	queries := make([]string, 0)
	if offset > 0 {
		queries = append(queries, fmt.Sprintf("offset=%d", offset))
	}
	if limit > 0 {
		queries = append(queries, fmt.Sprintf("limit=%d", limit))
	}
	query := ""
	if len(queries) > 0 {
		query = "?" + strings.Join(queries, "&")
	}
	url := sdk.attributorURL + roundsEndpoint + query

	body, err := sdk.processRequest(http.MethodGet, url, nil, http.StatusOK)
	if err != nil {
		return attributor.RecordPage{}, err
	}

	var page attributor.RecordPage
	if err := json.Unmarshal(body, &page); err != nil {
		return attributor.RecordPage{}, err
	}

	return page, nil
}
