package events

import (
	"context"
	"log"
)

type Publisher interface {
	PublishRoleGranted(ctx context.Context, principalID, roleName, entityID, grantedBy string) error
	PublishRoleRevoked(ctx context.Context, principalID, roleID, entityID string) error
	PublishEntityDeactivated(ctx context.Context, entityID, entityType, name string) error
	PublishAccessDenied(ctx context.Context, principalID, permission, reason string) error

	// Close closes the publisher and releases resources
	Close() error
}

type EventPublisher struct {
	rabbitMQ *RabbitMQClient
	enabled  bool
}

func NewEventPublisher(rabbitURI string) (*EventPublisher, error) {
	if rabbitURI == "" {
		log.Println("Warning: RabbitMQ URI is empty, event publishing is disabled")
		return &EventPublisher{
			rabbitMQ: nil,
			enabled:  false,
		}, nil
	}

	client, err := NewRabbitMQClient(rabbitURI)
	if err != nil {
		return nil, err
	}

	err = client.setupExchangesAndQueues()
	if err != nil {
		client.Close()
		return nil, err
	}

	return &EventPublisher{
		rabbitMQ: client,
		enabled:  true,
	}, nil
}

func (p *EventPublisher) PublishRoleGranted(ctx context.Context, principalID, roleName, entityID, grantedBy string) error {
	if !p.enabled {
		log.Println("Event publishing is disabled, skipping RoleGrantedEvent")
		return nil
	}

	event := NewRoleGrantedEvent(principalID, roleName, entityID, grantedBy)

	eventData, err := event.ToJSON()
	if err != nil {
		return err
	}

	err = p.rabbitMQ.PublishEvent("organization-events", string(RoleGranted), eventData)
	if err != nil {
		return err
	}

	log.Printf("Published RoleGranted event for principal ID: %s", principalID)
	return nil
}

func (p *EventPublisher) PublishRoleRevoked(ctx context.Context, principalID, roleID, entityID string) error {
	if !p.enabled {
		log.Println("Event publishing is disabled, skipping RoleRevokedEvent")
		return nil
	}

	event := NewRoleRevokedEvent(principalID, roleID, entityID)

	eventData, err := event.ToJSON()
	if err != nil {
		return err
	}

	err = p.rabbitMQ.PublishEvent("organization-events", string(RoleRevoked), eventData)
	if err != nil {
		return err
	}

	log.Printf("Published RoleRevoked event for principal ID: %s", principalID)
	return nil
}

func (p *EventPublisher) PublishEntityDeactivated(ctx context.Context, entityID, entityType, name string) error {
	if !p.enabled {
		log.Println("Event publishing is disabled, skipping EntityDeactivatedEvent")
		return nil
	}

	event := NewEntityDeactivatedEvent(entityID, entityType, name)

	eventData, err := event.ToJSON()
	if err != nil {
		return err
	}

	err = p.rabbitMQ.PublishEvent("organization-events", string(EntityDeactivated), eventData)
	if err != nil {
		return err
	}

	log.Printf("Published EntityDeactivated event for %s: %s", entityType, entityID)
	return nil
}

func (p *EventPublisher) PublishAccessDenied(ctx context.Context, principalID, permission, reason string) error {
	if !p.enabled {
		return nil
	}

	event := NewAccessDeniedEvent(principalID, permission, reason)

	eventData, err := event.ToJSON()
	if err != nil {
		return err
	}

	return p.rabbitMQ.PublishEvent("organization-events", string(AccessDenied), eventData)
}

// Close releases resources
func (p *EventPublisher) Close() error {
	if !p.enabled || p.rabbitMQ == nil {
		return nil
	}

	return p.rabbitMQ.Close()
}
