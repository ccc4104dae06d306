package entity

import "github.com/parleyhq/parley/pkg/constant"

// Actor represents an authoring identity: a person, or an organization a
// person speaks for. Exactly one row exists per (subject_id, kind); creation
// is lazy and must stay idempotent under concurrent first use.
type Actor struct {
	Id        string `json:"id" gorm:"column:id;primaryKey"`
	SubjectId string `json:"subject_id" gorm:"column:subject_id;uniqueIndex:uk_actor_subject_kind"`
	Kind      int32  `json:"kind" gorm:"column:kind;uniqueIndex:uk_actor_subject_kind"`
	CreatedAt int64  `json:"created_at" gorm:"column:created_at"`
}

// TableName returns the table name for Actor
func (Actor) TableName() string {
	return "actors"
}

// IsPerson checks if the actor is a person
func (a *Actor) IsPerson() bool {
	return a.Kind == constant.ActorKindPerson
}

// IsOrganization checks if the actor is an organization
func (a *Actor) IsOrganization() bool {
	return a.Kind == constant.ActorKindOrganization
}
