package apistream

import (
	"context"
	"sort"

	"github.com/SAIGlobal/compliance360-activedirectory-sync/internal/remote"
)

// processPendingRelationships converges the relationships captured during
// the run. Targets are resolved through the DN cache, which by now holds
// every employee this run touched plus everything persisted from earlier
// runs. A failure for one employee does not stop the others.
func (e *engine) processPendingRelationships(ctx context.Context) {
	for _, employeeID := range e.pendingOrder {
		employee := remote.EntityRef{ID: employeeID}
		if err := e.convergeRelationships(ctx, employee, e.pending[employeeID]); err != nil {
			e.logger.WithJob(e.job.Name).WithField("employee_id", employeeID).
				Errorf("failed to process relationships: %v", err)
		}
	}
	e.pending = make(map[string]map[string]string)
	e.pendingOrder = nil
}

func (e *engine) convergeRelationships(ctx context.Context, employee remote.EntityRef, desired map[string]string) error {
	online, err := e.onlineRelationships(ctx, employee)
	if err != nil {
		return err
	}

	typeNames := make([]string, 0, len(desired))
	for name := range desired {
		typeNames = append(typeNames, name)
	}
	sort.Strings(typeNames)

	for _, typeName := range typeNames {
		targetDN := desired[typeName]

		targetID, ok := e.caches.EmployeeDN.Get(targetDN)
		if !ok {
			e.logger.WithJob(e.job.Name).WithField("employee_id", employee.ID).
				Warnf("relationship target [%s] is not a known employee, skipping [%s]", targetDN, typeName)
			continue
		}
		target := remote.EntityRef{ID: targetID}

		relType, err := e.resolveRelationshipType(ctx, typeName)
		if err != nil {
			return err
		}

		if err := e.applyRelationship(ctx, employee, *relType, target, online); err != nil {
			return err
		}
	}
	return nil
}

// applyRelationship reconciles one desired relationship against the
// online set. The first online relationship of the same type decides
// the outcome: left alone when it already points at the target,
// retargeted otherwise. Later entries of the same type are never
// consulted, even one that already matches. Only when no relationship
// of that type exists is a new one created.
func (e *engine) applyRelationship(ctx context.Context, employee, relType, target remote.EntityRef, online []*remote.Relationship) error {
	for _, rel := range online {
		if rel.Type.ID != relType.ID {
			continue
		}
		if rel.Employee.ID == target.ID {
			return nil
		}
		if err := e.relationships.UpdateRelationship(ctx, rel.EntityRef, target, e.token.Get()); err != nil {
			return err
		}
		rel.Employee = target
		return nil
	}

	if _, err := e.relationships.CreateRelationship(ctx, employee, relType, target, e.token.Get()); err != nil {
		return err
	}
	e.count("relationship")
	return nil
}

func (e *engine) onlineRelationships(ctx context.Context, employee remote.EntityRef) ([]*remote.Relationship, error) {
	refs, err := e.relationships.GetEmployeeRelationships(ctx, employee, e.token.Get())
	if err != nil {
		return nil, err
	}

	online := make([]*remote.Relationship, 0, len(refs))
	for _, ref := range refs {
		details, err := e.relationships.GetRelationshipDetails(ctx, ref, e.token.Get())
		if err != nil {
			return nil, err
		}
		online = append(online, details)
	}
	return online, nil
}

// resolveRelationshipType finds or creates a relationship type lookup
// value by name.
func (e *engine) resolveRelationshipType(ctx context.Context, name string) (*remote.EntityRef, error) {
	if id, ok := e.caches.RelationshipType.Get(name); ok {
		return &remote.EntityRef{ID: id}, nil
	}

	relType, err := e.relationships.GetRelationshipTypeByName(ctx, name, e.token.Get())
	if err != nil {
		return nil, err
	}
	if relType == nil {
		relType, err = e.relationships.CreateRelationshipType(ctx, name, e.token.Get())
		if err != nil {
			return nil, err
		}
	}
	e.caches.RelationshipType.Put(name, relType.ID)
	return relType, nil
}
