package engine

import (
	"math/rand"
	"sort"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/DavidKirkpatrick95/Alterrain/internal/domain"
	"github.com/DavidKirkpatrick95/Alterrain/internal/infrastructure/storage"
	"github.com/DavidKirkpatrick95/Alterrain/internal/network"
	"github.com/DavidKirkpatrick95/Alterrain/pkg/api"
	"github.com/DavidKirkpatrick95/Alterrain/pkg/logger"
	"github.com/DavidKirkpatrick95/Alterrain/pkg/terrain"
)

// SnapshotStore - внешний коллаборатор персистентности. Ядро вызывает
// его, но не реализует; nil отключает снапшоты целиком.
type SnapshotStore interface {
	LoadTiles(id string) ([][]domain.TileType, error)
	SaveTiles(id string, tiles [][]domain.TileType) error
}

// joinRequest - запрос на подключение. Обрабатывается потоком симуляции,
// ответ уходит в Reply (буфер 1, отправитель никогда не блокируется).
type joinRequest struct {
	ConnID string
	Reply  chan joinReply
}

type joinReply struct {
	Entity domain.EntityID
	Err    error
}

// leaveEvent - запрос на отключение: явный дисконнект сокета или
// сработавший таймер бездействия. Оба идут одним каналом, чтобы
// удаление из мира было сериализовано с тиком.
type leaveEvent struct {
	ConnID string
	Reason string
}

// GameService - явный контекст сервера: владеет миром, очередями и
// реестром соединений. Никаких глобальных синглтонов; всё передается
// планировщику по ссылке.
type GameService struct {
	Cfg      Config
	World    *domain.World
	Queue    *CommandQueue
	Hub      *network.Broadcaster
	Registry *ConnectionRegistry
	Store    SnapshotStore

	Journal *storage.Journal

	scheduler *Scheduler

	joinChan  chan joinRequest
	leaveChan chan leaveEvent

	tick atomic.Uint64

	// Накопленные TICK-пачки между рассылками.
	pendingTicks []api.TickPayload

	log *logrus.Entry
}

// NewService строит мир и всю обвязку вокруг него.
// Если store умеет загрузить снапшот с нужным ID, сетка тайлов берется
// из него; иначе генерируется свежая и (по возможности) сохраняется.
// Динамические объекты генерируются всегда заново.
func NewService(cfg Config, store SnapshotStore) *GameService {
	log := logger.WithComponent("engine")
	rng := rand.New(rand.NewSource(cfg.Seed))

	tiles := loadOrGenerateTiles(cfg, store, rng, log)

	world := domain.NewWorld(tiles, terrain.RollWeather(rng), rng)
	if cfg.MoveDuration > 0 {
		world.MoveDuration = cfg.MoveDuration
	}
	if cfg.SoundCooldown > 0 {
		world.SoundCooldown = cfg.SoundCooldown
	}
	if cfg.RegrowDelay > 0 {
		world.RegrowDelay = cfg.RegrowDelay
	}

	// Объекты всегда свежие, даже поверх загруженной сетки
	for _, p := range terrain.PlaceObjects(tiles, rng) {
		switch p.Kind {
		case domain.KindTree:
			world.PlaceTree(p.Pos, p.Durability)
		case domain.KindChest:
			world.PlaceChest(p.Pos, p.Required)
		}
	}
	world.ConsumeObjectsDirty() // стартовая расстановка не является диффом

	s := &GameService{
		Cfg:   cfg,
		World: world,
		Queue: NewCommandQueue(),
		Hub:   network.NewBroadcaster(),
		Store: store,
		Journal: &storage.Journal{
			Seed:    cfg.Seed,
			Started: time.Now().Unix(),
		},
		joinChan:  make(chan joinRequest, 16),
		leaveChan: make(chan leaveEvent, 64),
		log:       log,
	}

	// Таймер бездействия не трогает мир сам: он лишь кладет событие
	// в тот же канал, который дренирует тик.
	s.Registry = NewConnectionRegistry(cfg.IdleTimeout, func(connID string) {
		s.Disconnect(connID, "idle timeout")
	})

	s.scheduler = NewScheduler(cfg.TickInterval(), s.runTick)
	return s
}

func loadOrGenerateTiles(cfg Config, store SnapshotStore, rng *rand.Rand, log *logrus.Entry) [][]domain.TileType {
	if store != nil && cfg.SnapshotID != "" {
		tiles, err := store.LoadTiles(cfg.SnapshotID)
		if err == nil {
			log.WithField("snapshot", cfg.SnapshotID).Info("🗺️  World restored from snapshot")
			return tiles
		}
		// Невалидный снапшот не фатален: откатываемся на генерацию
		log.WithError(err).WithField("snapshot", cfg.SnapshotID).Warn("Snapshot load failed, generating fresh world")
	}

	tiles := terrain.Generate(cfg.Width, cfg.Height, rng)

	if store != nil && cfg.SnapshotID != "" {
		if err := store.SaveTiles(cfg.SnapshotID, tiles); err != nil {
			// Работать без персистентности можно, падать незачем
			log.WithError(err).Warn("Snapshot write failed, continuing without persistence")
		}
	}
	return tiles
}

// Start запускает планировщик тиков.
func (s *GameService) Start() {
	s.scheduler.Start()
}

// Stop останавливает планировщик, дожидаясь завершения текущего тика.
func (s *GameService) Stop() {
	s.scheduler.Stop()
}

// Tick возвращает номер текущего тика (безопасно из любой горутины).
func (s *GameService) Tick() uint64 {
	return s.tick.Load()
}

// Shutdown останавливает симуляцию и сбрасывает снапшот и журнал на диск.
func (s *GameService) Shutdown() {
	s.Stop()

	if s.Store != nil && s.Cfg.SnapshotID != "" {
		if err := s.Store.SaveTiles(s.Cfg.SnapshotID, s.World.Tiles); err != nil {
			s.log.WithError(err).Warn("Final snapshot write failed")
		}
	}

	if s.Cfg.JournalDir != "" && len(s.Journal.Entries) > 0 {
		path, err := s.Journal.Save(s.Cfg.JournalDir)
		if err != nil {
			s.log.WithError(err).Warn("Journal write failed")
		} else {
			s.log.WithFields(logrus.Fields{
				"path":    path,
				"entries": len(s.Journal.Entries),
			}).Info("💿 Command journal saved")
		}
	}
}

// --- ВХОД/ВЫХОД ---

// Connect регистрирует соединение: спавнит игрока и привязывает его
// к connID. Блокируется до ближайшего тика (обычно меньше интервала).
func (s *GameService) Connect(connID string) (domain.EntityID, error) {
	reply := make(chan joinReply, 1)
	s.joinChan <- joinRequest{ConnID: connID, Reply: reply}
	r := <-reply
	return r.Entity, r.Err
}

// Disconnect ставит отключение в очередь событий. Сам демонтаж
// (мир, реестр, очередь команд) выполнит поток симуляции.
func (s *GameService) Disconnect(connID, reason string) {
	s.leaveChan <- leaveEvent{ConnID: connID, Reason: reason}
}

// HandleCommand принимает конверт с транспорта, валидирует его и ставит
// команду в очередь. Ошибка означает отброшенную команду; соединение
// при этом не штрафуется.
func (s *GameService) HandleCommand(connID string, env api.ClientEnvelope) error {
	id, ok := s.Registry.EntityOf(connID)
	if !ok {
		return domain.ErrUnknownConnection
	}

	cmd, err := s.decodeEnvelope(id, env)
	if err != nil {
		return err
	}

	// Любая валидная команда считается активностью
	s.Registry.Touch(connID)
	s.Queue.Enqueue(id, cmd)
	return nil
}

// decodeEnvelope превращает сырой конверт в плоскую доменную команду.
func (s *GameService) decodeEnvelope(id domain.EntityID, env api.ClientEnvelope) (domain.Command, error) {
	cmd := domain.Command{
		Entity: id,
		Tick:   s.tick.Load(),
	}

	switch domain.ParseCommandType(env.Type) {
	case domain.CommandMove:
		var p api.MoveParams
		if err := json.Unmarshal(env.Params, &p); err != nil {
			return cmd, errors.Wrap(err, "move params")
		}
		if err := p.Validate(); err != nil {
			return cmd, err
		}
		cmd.Type = domain.CommandMove
		cmd.Dir = domain.Direction(p.Dir)

	case domain.CommandAlterTile:
		var p api.AlterTileParams
		if err := json.Unmarshal(env.Params, &p); err != nil {
			return cmd, errors.Wrap(err, "alterTile params")
		}
		if err := p.Validate(); err != nil {
			return cmd, err
		}
		if !domain.ValidTile(uint8(p.Tile)) {
			return cmd, errors.Errorf("unrecognized tile type %d", p.Tile)
		}
		cmd.Type = domain.CommandAlterTile
		cmd.Tile = domain.TileType(p.Tile)

	case domain.CommandCommunicate:
		var p api.CommunicateParams
		if err := json.Unmarshal(env.Params, &p); err != nil {
			return cmd, errors.Wrap(err, "communicate params")
		}
		if err := p.Validate(); err != nil {
			return cmd, err
		}
		cmd.Type = domain.CommandCommunicate
		cmd.Sound = p.Sound

	case domain.CommandInteract:
		cmd.Type = domain.CommandInteract

	default:
		return cmd, errors.Wrapf(domain.ErrUnknownCommand, "type %d", env.Type)
	}

	return cmd, nil
}

// --- ТИК ---

// runTick выполняет один тик: членство -> дренаж очередей -> применение
// команд -> шаг мира -> рассылка. Вызывается только планировщиком.
func (s *GameService) runTick(dt time.Duration) {
	s.drainMembership()

	drained := s.Queue.DrainAll()
	if len(drained) > 0 {
		// Команды разных сущностей применяются в порядке возрастания ID:
		// стабильный tie-break для конкуренции за одну клетку.
		ids := make([]domain.EntityID, 0, len(drained))
		for id := range drained {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

		for _, id := range ids {
			s.applyEntityCommands(id, drained[id])
		}
	}

	s.World.Step(dt)
	tick := s.tick.Add(1)

	s.broadcastState(tick)
}

// drainMembership обрабатывает входы и выходы, накопившиеся с прошлого
// тика. Неблокирующе: пустые каналы не задерживают симуляцию.
func (s *GameService) drainMembership() {
	for {
		select {
		case req := <-s.joinChan:
			s.handleJoin(req)
		case ev := <-s.leaveChan:
			s.handleLeave(ev)
		default:
			return
		}
	}
}

func (s *GameService) handleJoin(req joinRequest) {
	ent, err := s.World.SpawnPlayer(s.World.Width/2, s.World.Height/2)
	if err != nil {
		// ResourceExhaustion: сообщаем клиенту, цикл живет дальше
		s.log.WithError(err).WithField("conn_id", req.ConnID).Error("Spawn failed")
		req.Reply <- joinReply{Err: err}
		return
	}

	s.Registry.Add(req.ConnID, ent.ID)
	req.Reply <- joinReply{Entity: ent.ID}

	// Полный слепок мира - только новому клиенту
	s.Hub.SendTo(req.ConnID, s.buildWorldInit(ent.ID))

	s.Hub.Broadcast(api.ServerMessage{
		Type: api.MsgPlayerEvent,
		Event: &api.PlayerEvent{
			Kind:      "join",
			ID:        int64(ent.ID),
			X:         ent.Pos.X,
			Y:         ent.Pos.Y,
			Timestamp: time.Now().UnixMilli(),
		},
	})

	s.log.WithFields(logrus.Fields{
		"conn_id":   req.ConnID,
		"entity_id": ent.ID,
	}).Info("Player joined")
}

func (s *GameService) handleLeave(ev leaveEvent) {
	id, ok := s.Registry.Remove(ev.ConnID)
	if !ok {
		// StateInconsistency: дисконнект неизвестного соединения.
		// Случается при гонке «таймер бездействия против закрытия сокета».
		s.log.WithField("conn_id", ev.ConnID).Error("Disconnect of untracked connection")
		return
	}

	var pos domain.Position
	if e := s.World.Entity(id); e != nil {
		pos = e.Pos
	}
	if err := s.World.RemoveEntity(id); err != nil {
		s.log.WithError(err).WithField("entity_id", id).Warn("Entity already gone")
	}

	s.Queue.Drop(id)
	s.Hub.Unregister(ev.ConnID)

	s.Hub.Broadcast(api.ServerMessage{
		Type: api.MsgPlayerEvent,
		Event: &api.PlayerEvent{
			Kind:      "leave",
			ID:        int64(id),
			X:         pos.X,
			Y:         pos.Y,
			Timestamp: time.Now().UnixMilli(),
		},
	})

	s.log.WithFields(logrus.Fields{
		"conn_id":   ev.ConnID,
		"entity_id": id,
		"reason":    ev.Reason,
	}).Info("Player left")
}

// applyEntityCommands применяет команды одной сущности в порядке
// прибытия. Паника при применении не выходит за границу тика: остаток
// команд этой сущности пропускается, остальные сущности не страдают.
func (s *GameService) applyEntityCommands(id domain.EntityID, cmds []domain.Command) {
	defer func() {
		if r := recover(); r != nil {
			s.log.WithFields(logrus.Fields{
				"entity_id": id,
				"panic":     r,
			}).Error("Command application panicked, skipping the rest of this entity's batch")
		}
	}()

	for _, cmd := range cmds {
		if err := s.World.ApplyCommand(cmd); err != nil {
			// Сущность испарилась между enqueue и тиком - остаток не нужен
			s.log.WithError(err).WithFields(logrus.Fields{
				"entity_id": id,
				"command":   cmd.Type.String(),
			}).Warn("Command dropped")
			return
		}
		s.journalCommand(cmd)
	}
}

// journalPayload - сериализуемые параметры команды для журнала.
type journalPayload struct {
	Dir   uint8  `json:"dir,omitempty"`
	Tile  uint8  `json:"tile,omitempty"`
	Sound string `json:"sound,omitempty"`
}

func (s *GameService) journalCommand(cmd domain.Command) {
	payload, err := json.Marshal(journalPayload{
		Dir:   uint8(cmd.Dir),
		Tile:  uint8(cmd.Tile),
		Sound: cmd.Sound,
	})
	if err != nil {
		return
	}
	s.Journal.Record(cmd.Tick, int64(cmd.Entity), uint8(cmd.Type), payload)
}

// --- РАССЫЛКА ---

// broadcastState сериализует диффы тика и передает их хабу.
// Без живых подписчиков диффы все равно потребляются (иначе буферы
// растут неограниченно), но сериализация не выполняется.
func (s *GameService) broadcastState(tick uint64) {
	diffs := s.World.ConsumeTileDiffs()
	objectsDirty := s.World.ConsumeObjectsDirty()
	sounds := s.World.ConsumeSounds()

	if s.Hub.SubscriberCount() == 0 {
		s.pendingTicks = nil
		return
	}

	// TICK копится и уходит пачкой раз в BroadcastEvery тиков
	s.pendingTicks = append(s.pendingTicks, api.TickPayload{
		Tick:    tick,
		Players: s.playerViews(),
	})

	every := uint64(s.Cfg.BroadcastEvery)
	if every <= 1 || tick%every == 0 {
		s.Hub.Broadcast(api.ServerMessage{
			Type:  api.MsgTick,
			Ticks: s.pendingTicks,
		})
		s.pendingTicks = nil
	}

	if len(diffs) > 0 || objectsDirty {
		update := &api.WorldUpdate{}
		for _, d := range diffs {
			update.Tiles = append(update.Tiles, api.TileView{X: d.X, Y: d.Y, Tile: int(d.Tile)})
		}
		if objectsDirty {
			update.Trees = s.treeViews()
			update.Chests = s.chestViews()
		}
		s.Hub.Broadcast(api.ServerMessage{Type: api.MsgWorldUpdate, Update: update})
	}

	for _, snd := range sounds {
		s.Hub.Broadcast(api.ServerMessage{
			Type: api.MsgPlaySound,
			Sound: &api.SoundView{
				ID:    int64(snd.Entity),
				X:     snd.Pos.X,
				Y:     snd.Pos.Y,
				Sound: snd.Sound,
			},
		})
	}
}

// --- DTO ---

func (s *GameService) buildWorldInit(id domain.EntityID) api.ServerMessage {
	w := s.World

	tiles := make([]int, 0, w.Width*w.Height)
	for y := 0; y < w.Height; y++ {
		for x := 0; x < w.Width; x++ {
			tiles = append(tiles, int(w.Tiles[y][x]))
		}
	}

	return api.ServerMessage{
		Type: api.MsgWorldInit,
		Init: &api.WorldInit{
			EntityID: int64(id),
			Width:    w.Width,
			Height:   w.Height,
			Weather:  string(w.Weather),
			Tiles:    tiles,
			Players:  s.playerViews(),
			Trees:    s.treeViews(),
			Chests:   s.chestViews(),
		},
	}
}

func (s *GameService) playerViews() []api.PlayerView {
	players := s.World.Players()
	out := make([]api.PlayerView, 0, len(players))
	for _, p := range players {
		view := api.PlayerView{
			ID:     int64(p.ID),
			X:      p.Pos.X,
			Y:      p.Pos.Y,
			Facing: int(p.Facing),
			Moving: p.Player.Moving,
		}
		if len(p.Player.Inventory) > 0 {
			view.Inventory = make(map[string]int, len(p.Player.Inventory))
			for item, count := range p.Player.Inventory {
				view.Inventory[string(item)] = count
			}
		}
		out = append(out, view)
	}
	return out
}

func (s *GameService) treeViews() []api.ObjectView {
	trees := s.World.Trees()
	out := make([]api.ObjectView, 0, len(trees))
	for _, t := range trees {
		out = append(out, api.ObjectView{ID: int64(t.ID), X: t.Pos.X, Y: t.Pos.Y})
	}
	return out
}

func (s *GameService) chestViews() []api.ChestView {
	chests := s.World.Chests()
	out := make([]api.ChestView, 0, len(chests))
	for _, c := range chests {
		out = append(out, api.ChestView{
			ID:       int64(c.ID),
			X:        c.Pos.X,
			Y:        c.Pos.Y,
			Required: c.Chest.Required,
			Unlocked: len(c.Chest.UnlockedBy),
			Opened:   c.Chest.Opened,
		})
	}
	return out
}
