// Package room implements the room directory: named broadcast channels with
// an explicit member set and their own retained history.
package room

import (
	"fmt"
	"sort"

	"github.com/weiawesome/wes-io-chat/internal/domain"
	"github.com/weiawesome/wes-io-chat/internal/msglog"
)

const (
	DefaultJoinWindow = 50
	DefaultPageSize   = 30
)

// Room is created on first join and never destroyed. An empty room keeps its
// log for later reentry.
type Room struct {
	Name    string
	members map[string]string // connID -> username
	log     *msglog.Log
}

func newRoom(name string) *Room {
	return &Room{
		Name:    name,
		members: make(map[string]string),
		log:     msglog.New(),
	}
}

// Summary is a read-only view of a room for listings.
type Summary struct {
	Name     string `json:"name"`
	Members  int    `json:"members"`
	Messages int    `json:"messages"`
}

type Options struct {
	JoinWindow int
	PageSize   int
}

// Directory owns every room and tracks which room each connection is in.
// A connection is a member of at most one room at a time.
//
// Directory is not safe for concurrent use; the router serializes access.
type Directory struct {
	rooms      map[string]*Room
	membership map[string]string // connID -> room
	stamper    *msglog.Stamper
	opts       Options
}

func NewDirectory(stamper *msglog.Stamper, opts Options) *Directory {
	if opts.JoinWindow <= 0 {
		opts.JoinWindow = DefaultJoinWindow
	}
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	return &Directory{
		rooms:      make(map[string]*Room),
		membership: make(map[string]string),
		stamper:    stamper,
		opts:       opts,
	}
}

func (d *Directory) room(name string) *Room {
	r, ok := d.rooms[name]
	if !ok {
		r = newRoom(name)
		d.rooms[name] = r
	}
	return r
}

// Join moves connID into room name, appends the join notice and returns it
// together with the recent history window, which ends with the notice.
// A previous membership is dropped silently.
func (d *Directory) Join(name, connID, username string) (*domain.Message, []*domain.Message, error) {
	if name == "" {
		return nil, nil, domain.ErrRoomRequired
	}
	d.Drop(connID)

	r := d.room(name)
	r.members[connID] = username
	d.membership[connID] = name

	notice, err := d.Post(name, domain.NewNotification(name, fmt.Sprintf("%s joined %s", username, name)))
	if err != nil {
		return nil, nil, err
	}
	return notice, r.log.Tail(d.opts.JoinWindow), nil
}

// Leave removes connID from room name. It reports whether connID was a
// member.
func (d *Directory) Leave(name, connID string) bool {
	r, ok := d.rooms[name]
	if !ok {
		return false
	}
	if _, member := r.members[connID]; !member {
		return false
	}
	delete(r.members, connID)
	if d.membership[connID] == name {
		delete(d.membership, connID)
	}
	return true
}

// Drop removes connID from whatever room it is in and returns that room.
func (d *Directory) Drop(connID string) (string, bool) {
	name, ok := d.membership[connID]
	if !ok {
		return "", false
	}
	d.Leave(name, connID)
	return name, true
}

// Post stamps msg, appends it to room name and returns a copy of the stored
// value. The room is created if it does not exist yet.
func (d *Directory) Post(name string, msg *domain.Message) (*domain.Message, error) {
	if name == "" {
		return nil, domain.ErrRoomRequired
	}
	if err := d.stamper.Stamp(msg); err != nil {
		return nil, err
	}
	if err := d.room(name).log.Append(msg); err != nil {
		return nil, err
	}
	return msg.Clone(), nil
}

// OlderThan pages room history strictly before the message with id before.
// limit <= 0 uses the configured page size. Unknown rooms have an empty log.
func (d *Directory) OlderThan(name, before string, limit int) []*domain.Message {
	if limit <= 0 {
		limit = d.opts.PageSize
	}
	r, ok := d.rooms[name]
	if !ok {
		return []*domain.Message{}
	}
	return r.log.OlderThan(before, limit)
}

// Find returns the live message id in room name.
func (d *Directory) Find(name, id string) (*domain.Message, bool) {
	r, ok := d.rooms[name]
	if !ok {
		return nil, false
	}
	return r.log.Find(id)
}

// Members returns the connection ids currently in room name, sorted.
func (d *Directory) Members(name string) []string {
	r, ok := d.rooms[name]
	if !ok {
		return nil
	}
	ids := make([]string, 0, len(r.members))
	for connID := range r.members {
		ids = append(ids, connID)
	}
	sort.Strings(ids)
	return ids
}

// List summarizes every room, sorted by name.
func (d *Directory) List() []Summary {
	out := make([]Summary, 0, len(d.rooms))
	for _, r := range d.rooms {
		out = append(out, Summary{Name: r.Name, Members: len(r.members), Messages: r.log.Len()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
