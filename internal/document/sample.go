package document

import (
	"github.com/sysdraw/sysdraw/backend-go/internal/typeid"
)

// NewSampleDocument returns a small three-tier architecture diagram used to
// seed new designs and in tests.
func NewSampleDocument(id string) *Document {
	d := NewDocument(id, "Untitled design")
	d.Meta.Description = "Client, load balancer, two servers, cache and database"

	d.Shapes = []Shape{
		NewShape("client", KindClient, 40, 200, 0),
		NewShape("lb", KindLoadBalancer, 240, 200, 1),
		NewShape("api-1", KindServer, 460, 100, 2),
		NewShape("api-2", KindServer, 460, 300, 3),
		NewShape("cache", KindCache, 700, 100, 4),
		NewShape("db", KindDatabase, 700, 300, 5),
	}
	title := NewShape("title", KindText, 40, 40, 6)
	title.Body = TextBody{Text: "Checkout service"}
	d.Shapes = append(d.Shapes, title)
	d.Reindex()

	link := func(from, to string, t ConnectionType) {
		a, _ := d.Shape(from)
		b, _ := d.Shape(to)
		fs, ts := OptimalAnchors(a, b)
		d.Connections = append(d.Connections, NewConnection(typeid.NewConnectionID(), from, fs, to, ts, t))
	}
	link("client", "lb", ConnRequestResponse)
	link("lb", "api-1", ConnSynchronousCall)
	link("lb", "api-2", ConnSynchronousCall)
	link("api-1", "cache", ConnAsynchronousCall)
	link("api-2", "db", ConnSynchronousCall)

	backend := NewGroup(typeid.NewGroupID(), "backend", 430, 70, 0)
	backend.DisplayName = "Backend"
	backend.Width, backend.Height = 420, 360
	d.Groups = []Group{backend}
	return d
}
