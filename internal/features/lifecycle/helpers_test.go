package lifecycle

import (
	"context"
	"sort"
	"sync"
	"time"

	"freight-booking/internal/core/apperror"
	"freight-booking/internal/core/auth"
	"freight-booking/internal/core/query"
)

type testStatus string

const (
	stRequested     testStatus = "booking_requested"
	stConfirmed     testStatus = "booking_confirmed"
	stPickup        testStatus = "pickup_scheduled"
	stReceived      testStatus = "received_at_warehouse"
	stConsolidating testStatus = "consolidation_in_progress"
	stContainer     testStatus = "loaded_in_container"
	stFlight        testStatus = "loaded_on_flight"
	stTransit       testStatus = "in_transit"
	stArrived       testStatus = "arrived_at_destination"
	stCustoms       testStatus = "customs_clearance"
	stOutForDeliv   testStatus = "out_for_delivery"
	stDelivered     testStatus = "delivered"
	stCancelled     testStatus = "cancelled"
	stReturned      testStatus = "returned"
)

var testNext = map[testStatus][]testStatus{
	stRequested:     {stConfirmed, stCancelled},
	stConfirmed:     {stPickup, stReceived, stCancelled},
	stPickup:        {stReceived, stCancelled},
	stReceived:      {stConsolidating, stCancelled},
	stConsolidating: {stContainer, stFlight, stCancelled},
	stContainer:     {stTransit},
	stFlight:        {stTransit},
	stTransit:       {stArrived},
	stArrived:       {stCustoms, stOutForDeliv},
	stCustoms:       {stOutForDeliv, stReturned},
	stOutForDeliv:   {stDelivered},
	stDelivered:     {},
	stCancelled:     {},
	stReturned:      {},
}

func testTable() *Table[testStatus] {
	warehouse := []auth.Role{auth.RoleOperations, auth.RoleWarehouse, auth.RoleAdmin}
	return NewTable(Definition[testStatus]{
		Entity:    "booking",
		Initial:   stRequested,
		Confirmed: stConfirmed,
		Cancelled: stCancelled,
		Next:      testNext,
		Roles: map[testStatus][]auth.Role{
			stPickup:        warehouse,
			stReceived:      warehouse,
			stConsolidating: warehouse,
			stContainer:     warehouse,
			stFlight:        warehouse,
		},
		DefaultRoles: []auth.Role{auth.RoleOperations, auth.RoleAdmin},
		Deletable:    []testStatus{stRequested, stConfirmed},
		Stages: [][]testStatus{
			{stRequested}, {stConfirmed}, {stPickup}, {stReceived}, {stConsolidating},
			{stContainer, stFlight}, {stTransit}, {stArrived}, {stCustoms}, {stOutForDeliv}, {stDelivered},
		},
	})
}

var (
	ops       = auth.Actor{ID: "ops-1", Role: auth.RoleOperations}
	warehouse = auth.Actor{ID: "wh-1", Role: auth.RoleWarehouse}
	admin     = auth.Actor{ID: "admin-1", Role: auth.RoleAdmin}
	owner     = auth.Actor{ID: "cust-1", Role: auth.RoleCustomer}
	stranger  = auth.Actor{ID: "cust-2", Role: auth.RoleCustomer}
)

type testEntity struct {
	Record[testStatus]
	Customer string
	Email    string
	Marker   string
}

func (t *testEntity) OwnerID() string { return t.Customer }

func (t *testEntity) Contact() Contact { return Contact{Name: "Test", Email: t.Email} }

func (t *testEntity) clone() *testEntity {
	c := *t
	c.Timeline = t.Timeline.Clone()
	return &c
}

// memRepo is an in-memory Repository with version checks.
type memRepo struct {
	mu       sync.Mutex
	rows     map[string]*testEntity
	numbers  map[string]bool
	beforeUp func(id string)
	insertFn func(e *testEntity) error
	updateFn func(e *testEntity) error
}

func newMemRepo() *memRepo {
	return &memRepo{rows: map[string]*testEntity{}, numbers: map[string]bool{}}
}

func (r *memRepo) FindByID(_ context.Context, id string) (*testEntity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.rows[id]
	if !ok {
		return nil, apperror.NotFound("booking", id)
	}
	return e.clone(), nil
}

func (r *memRepo) Insert(_ context.Context, e *testEntity) error {
	if r.insertFn != nil {
		if err := r.insertFn(e); err != nil {
			return err
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.numbers[e.Number] {
		return apperror.DuplicateIdentifier("number", 1, nil)
	}
	r.numbers[e.Number] = true
	r.rows[e.ID] = e.clone()
	return nil
}

func (r *memRepo) Update(_ context.Context, e *testEntity, expected int) error {
	if r.beforeUp != nil {
		r.beforeUp(e.ID)
	}
	if r.updateFn != nil {
		if err := r.updateFn(e); err != nil {
			return err
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.rows[e.ID]
	if !ok || stored.Version != expected {
		return apperror.Conflict("booking", e.ID, expected)
	}
	r.rows[e.ID] = e.clone()
	return nil
}

func (r *memRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[id]; !ok {
		return apperror.NotFound("booking", id)
	}
	delete(r.rows, id)
	return nil
}

func (r *memRepo) match(q query.Query) []*testEntity {
	var out []*testEntity
	for _, e := range r.rows {
		switch q.Trash {
		case query.ExcludeDeleted:
			if e.IsDeleted {
				continue
			}
		case query.OnlyDeleted:
			if !e.IsDeleted {
				continue
			}
		}
		ok := true
		for _, c := range q.Conditions {
			if c.Field == "customer_id" && c.Value != e.Customer {
				ok = false
			}
			if c.Field == "status" && c.Value != string(e.Status) {
				ok = false
			}
		}
		if ok {
			out = append(out, e.clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *memRepo) Find(_ context.Context, q query.Query) (query.Page[*testEntity], error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	items := r.match(q)
	return query.Page[*testEntity]{Items: items, Total: int64(len(items))}, nil
}

func (r *memRepo) Count(_ context.Context, q query.Query) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.match(q))), nil
}

func (r *memRepo) CountBy(_ context.Context, _ string, q query.Query) (map[string]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := map[string]int64{}
	for _, e := range r.match(q) {
		counts[string(e.Status)]++
	}
	return counts, nil
}

func (r *memRepo) DeleteWhere(_ context.Context, q query.Query) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	items := r.match(q)
	for _, e := range items {
		delete(r.rows, e.ID)
	}
	return int64(len(items)), nil
}

type fixedTracking struct {
	values []string
	calls  int
	err    error
}

func (f *fixedTracking) TrackingNumber(context.Context) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	v := f.values[f.calls%len(f.values)]
	f.calls++
	return v, nil
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []Event
}

func (n *recordingNotifier) Notify(_ context.Context, ev Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, ev)
}

func (n *recordingNotifier) kinds() []EventKind {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]EventKind, len(n.events))
	for i, ev := range n.events {
		out[i] = ev.Kind
	}
	return out
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 1, 15, 8, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Minute)
	return c.t
}

func newRecord(status testStatus) *Record[testStatus] {
	return &Record[testStatus]{ID: "b-1", Number: "BK2501-0001", Status: status}
}
