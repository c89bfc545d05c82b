package sdk

import (
	"bytes"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/absmach/shapley/attributor"
	"github.com/absmach/shapley/pkg/attribution"
)

const CTJSON string = "application/json"

type SDK interface {
	// Attribute submits a round for attribution.
	//
	// example:
	//  req := attributor.RoundRequest{
	//    Round:   1,
	//    N:       3,
	//    Utility: attributor.UtilitySource{Table: table},
	//  }
	//  res, _ := sdk.Attribute(req)
	//  fmt.Println(res.Records)
	Attribute(req attributor.RoundRequest) (attributor.RoundResult, error)

	// GetRound gets every record of a round.
	//
	// example:
	//  res, _ := sdk.GetRound(1)
	//  fmt.Println(res)
	GetRound(round uint64) (attributor.RoundResult, error)

	// GetRecord gets the record of one method for a round.
	//
	// example:
	//  rec, _ := sdk.GetRecord(1, attribution.MethodExact)
	//  fmt.Println(rec.Vector)
	GetRecord(round uint64, method attribution.Method) (attribution.Record, error)

	// ListRecords lists records ordered by round and method.
	//
	// example:
	//  page, _ := sdk.ListRecords(0, 10)
	//  fmt.Println(page)
	ListRecords(offset, limit uint64) (attributor.RecordPage, error)
}

type attributorSDK struct {
	attributorURL string
	client        *http.Client
}

type Config struct {
	AttributorURL   string
	TLSVerification bool
}

func NewSDK(cfg Config) SDK {
	return &attributorSDK{
		attributorURL: cfg.AttributorURL,
		client: &http.Client{
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{
					InsecureSkipVerify: !cfg.TLSVerification,
				},
			},
		},
	}
}

type errorRes struct {
	Error string `json:"error"`
}

func (sdk *attributorSDK) processRequest(method, reqURL string, data []byte, expectedRespCode int) ([]byte, error) {
	req, err := http.NewRequest(method, reqURL, bytes.NewReader(data))
	if err != nil {
		return []byte{}, err
	}

	req.Header.Add("Content-Type", CTJSON)

	resp, err := sdk.client.Do(req)
	if err != nil {
		return []byte{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return []byte{}, err
	}

	if resp.StatusCode != expectedRespCode {
		var e errorRes
		if err := json.Unmarshal(body, &e); err == nil && e.Error != "" {
			return []byte{}, fmt.Errorf("unexpected response code %d: %s", resp.StatusCode, e.Error)
		}

		return []byte{}, fmt.Errorf("unexpected response code: %d", resp.StatusCode)
	}

	return body, nil
}
