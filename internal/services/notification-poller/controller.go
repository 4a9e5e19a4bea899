package notification_poller

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/NordCoder/ghbridge/internal/bus"
	"github.com/NordCoder/ghbridge/internal/domain/notification"
	"github.com/NordCoder/ghbridge/internal/obs"
)

// Controller feeds enable/disable commands from the bus into the Poller.
type Controller struct {
	log      *zap.Logger
	bus      bus.Bus
	poller   *Poller
	validate *validator.Validate
}

func NewController(b bus.Bus, p *Poller, log *zap.Logger) *Controller {
	return &Controller{
		log:      obs.Component(log, "poller.controller"),
		bus:      b,
		poller:   p,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Register installs the handlers and subscribes to both command topics.
func (c *Controller) Register(ctx context.Context) error {
	c.bus.OnMessage(bus.TopicNotificationsEnable, c.onEnable)
	c.bus.OnMessage(bus.TopicNotificationsDisable, c.onDisable)
	for _, topic := range []string{bus.TopicNotificationsEnable, bus.TopicNotificationsDisable} {
		if err := c.bus.Subscribe(ctx, topic); err != nil {
			return fmt.Errorf("subscribe %s: %w", topic, err)
		}
	}
	return nil
}

func (c *Controller) onEnable(_ context.Context, msg bus.Message) error {
	var e notification.EnableEvent
	if err := msg.Decode(&e); err != nil {
		return err
	}
	if err := c.validate.Struct(e); err != nil {
		c.log.Warn("invalid enable command", zap.String("sender", msg.Sender), zap.Error(err))
		return nil
	}
	c.poller.AddUser(e)
	return nil
}

func (c *Controller) onDisable(_ context.Context, msg bus.Message) error {
	var e notification.DisableEvent
	if err := msg.Decode(&e); err != nil {
		return err
	}
	if err := c.validate.Struct(e); err != nil {
		c.log.Warn("invalid disable command", zap.String("sender", msg.Sender), zap.Error(err))
		return nil
	}
	c.poller.RemoveUser(e.UserID)
	return nil
}
