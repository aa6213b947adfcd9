package remote

// entityListResponse is the generic query envelope: a status plus zero or
// more entity refs. Zero rows is the normal "not found" result, never an
// error.
type entityListResponse struct {
	Status Status      `json:"status"`
	Data   []EntityRef `json:"data"`
}

// Employee is the mutable field document written to the remote system.
// The "id" slot holds the EntityRef token once the employee is resolved.
type Employee map[string]interface{}

// ID returns the employee's EntityRef token, empty when unresolved
func (e Employee) ID() string {
	if id, ok := e["id"].(string); ok {
		return id
	}
	return ""
}

// SetID stores the employee's EntityRef token
func (e Employee) SetID(id string) {
	e["id"] = id
}

// Ref returns the employee's EntityRef
func (e Employee) Ref() EntityRef {
	return EntityRef{ID: e.ID()}
}

// entityReference is the add/remove action element used when updating
// reference lists (profile groups, related employees)
type entityReference struct {
	ID     string `json:"id"`
	Action string `json:"action"`
}

// Relationship is a typed directed link between two employee records
type Relationship struct {
	EntityRef
	Employee EntityRef `json:"Employee"`
	Type     EntityRef `json:"Type"`
}
