package roomsync

// IRoomService is the room synchronization core as seen by transports.
type IRoomService interface {
	Connect(sink Sink) ConnID
	CreateOrJoin(id ConnID, room string) bool
	Leave(id ConnID, room string) bool
	Relay(id ConnID, in Intent) (int, error)
	Disconnect(id ConnID) int
	Members(room string) ([]ConnID, bool)
	Rooms() []RoomInfo
}

type roomService struct {
	registry *Registry
	store    *Store
	ctl      *Controller
	relay    *Relay
	sweeper  *Sweeper
}

var _ IRoomService = (*roomService)(nil)

// NewRoomService wires the registry, store, controller, relay and sweeper.
// observer may be nil.
func NewRoomService(observer RoomObserver) IRoomService {
	registry := NewRegistry()
	store := NewStore()
	ctl := NewController(store, registry, observer)
	return &roomService{
		registry: registry,
		store:    store,
		ctl:      ctl,
		relay:    NewRelay(store, registry),
		sweeper:  NewSweeper(ctl),
	}
}

func (s *roomService) Connect(sink Sink) ConnID { return s.registry.Register(sink) }

func (s *roomService) CreateOrJoin(id ConnID, room string) bool {
	return s.ctl.CreateOrJoin(id, room)
}

func (s *roomService) Leave(id ConnID, room string) bool { return s.ctl.Leave(id, room) }

func (s *roomService) Relay(id ConnID, in Intent) (int, error) { return s.relay.Relay(id, in) }

func (s *roomService) Disconnect(id ConnID) int { return s.sweeper.Disconnect(id) }

func (s *roomService) Members(room string) ([]ConnID, bool) { return s.store.Members(room) }

func (s *roomService) Rooms() []RoomInfo { return s.store.Rooms() }
