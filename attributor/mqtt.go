package attributor

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	pkgerrors "github.com/absmach/shapley/pkg/errors"
	"github.com/absmach/shapley/pkg/mqtt"
)

var errNoPubSub = errors.New("no pubsub configured")

// Subscribe consumes round requests published on the attribution requests
// topic under baseTopic and runs each through svc. Pass the decorated
// service so MQTT rounds go through the same middleware as HTTP ones.
func Subscribe(ctx context.Context, svc Service, pubsub mqtt.PubSub, baseTopic string, logger *slog.Logger) error {
	if pubsub == nil {
		return errNoPubSub
	}

	return pubsub.Subscribe(ctx, baseTopic+"/"+mqtt.RequestsTopic, NewMQTTHandler(ctx, svc, logger))
}

func NewMQTTHandler(ctx context.Context, svc Service, logger *slog.Logger) mqtt.Handler {
	return func(topic string, payload []byte) error {
		var req RoundRequest
		if err := json.Unmarshal(payload, &req); err != nil {
			return errors.Join(pkgerrors.ErrInvalidData, err)
		}

		res, err := svc.Attribute(ctx, req)
		if err != nil {
			return err
		}

		logger.InfoContext(ctx, "Attributed round from MQTT request",
			slog.String("topic", topic),
			slog.Uint64("round", res.Round),
			slog.Int("records", len(res.Records)))

		return nil
	}
}
