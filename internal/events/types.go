package events

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"time"
)

type EventType string

const (
	// RoleGranted is emitted when a principal receives a role on an entity
	RoleGranted EventType = "role.granted"
	// RoleRevoked is emitted when an assignment is deactivated
	RoleRevoked EventType = "role.revoked"
	// EntityDeactivated is emitted when a hierarchy entity is soft-deleted
	EntityDeactivated EventType = "entity.deactivated"
	// AccessDenied is the audit trail for denied authorization checks
	AccessDenied EventType = "access.denied"
)

type BaseEvent struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Timestamp int64     `json:"timestamp"`
	Version   string    `json:"version"`
}

type RoleGrantedEvent struct {
	BaseEvent
	PrincipalID string `json:"principal_id"`
	RoleName    string `json:"role_name"`
	EntityID    string `json:"entity_id"`
	GrantedBy   string `json:"granted_by"`
}

func NewRoleGrantedEvent(principalID, roleName, entityID, grantedBy string) *RoleGrantedEvent {
	return &RoleGrantedEvent{
		BaseEvent:   newBaseEvent(RoleGranted),
		PrincipalID: principalID,
		RoleName:    roleName,
		EntityID:    entityID,
		GrantedBy:   grantedBy,
	}
}

func (e *RoleGrantedEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

type RoleRevokedEvent struct {
	BaseEvent
	PrincipalID string `json:"principal_id"`
	RoleID      string `json:"role_id"`
	EntityID    string `json:"entity_id"`
}

func NewRoleRevokedEvent(principalID, roleID, entityID string) *RoleRevokedEvent {
	return &RoleRevokedEvent{
		BaseEvent:   newBaseEvent(RoleRevoked),
		PrincipalID: principalID,
		RoleID:      roleID,
		EntityID:    entityID,
	}
}

func (e *RoleRevokedEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

type EntityDeactivatedEvent struct {
	BaseEvent
	EntityID   string `json:"entity_id"`
	EntityType string `json:"entity_type"`
	Name       string `json:"name"`
}

func NewEntityDeactivatedEvent(entityID, entityType, name string) *EntityDeactivatedEvent {
	return &EntityDeactivatedEvent{
		BaseEvent:  newBaseEvent(EntityDeactivated),
		EntityID:   entityID,
		EntityType: entityType,
		Name:       name,
	}
}

func (e *EntityDeactivatedEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

type AccessDeniedEvent struct {
	BaseEvent
	PrincipalID string `json:"principal_id"`
	Permission  string `json:"permission"`
	Reason      string `json:"reason"`
}

func NewAccessDeniedEvent(principalID, permission, reason string) *AccessDeniedEvent {
	return &AccessDeniedEvent{
		BaseEvent:   newBaseEvent(AccessDenied),
		PrincipalID: principalID,
		Permission:  permission,
		Reason:      reason,
	}
}

// ToJSON serializes the event to JSON
func (e *AccessDeniedEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

func newBaseEvent(eventType EventType) BaseEvent {
	return BaseEvent{
		ID:        generateEventID(),
		Type:      eventType,
		Timestamp: time.Now().Unix(),
		Version:   "1.0",
	}
}

// generateEventID generates a unique ID for an event
func generateEventID() string {
	buf := make([]byte, 3)
	rand.Read(buf)
	return time.Now().Format("20060102150405") + "-" + hex.EncodeToString(buf)
}
