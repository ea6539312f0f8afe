// Package models defines the entities persisted by the service.
//
// There is one entity, [Event], an audit record of an authorization flow step. Events describe what
// happened (operation, outcome, a non-secret detail) and never carry tokens, codes, states or client secrets.
package models
