package command

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/holdfast-mud/holdfast/internal/locale"
	"github.com/holdfast-mud/holdfast/internal/model"
)

// Register wires the representative command set into r. Movement
// directions (north, n, sw, ...) are registered individually as their
// own commands that call handleGo, so a bare direction word works the
// same as "go <direction>".
func Register(r *Registry) {
	r.Register(Spec{Name: "look", Aliases: []string{"l"}, Description: "Look at your surroundings.", Handler: handleLook})
	r.Register(Spec{Name: "go", Description: "Move in a direction.", Handler: handleGo})
	for _, dir := range []string{"north", "south", "east", "west", "up", "down",
		"northeast", "northwest", "southeast", "southwest",
		"n", "s", "e", "w", "u", "d", "ne", "nw", "se", "sw"} {
		dir := dir
		r.Register(Spec{Name: dir, Handler: func(ctx *Context, arg string) Result {
			return handleGo(ctx, dir)
		}})
	}

	r.Register(Spec{Name: "get", Aliases: []string{"take"}, Description: "Pick up an object.", Handler: handleGet})
	r.Register(Spec{Name: "drop", Description: "Drop an object.", Handler: handleDrop})
	r.Register(Spec{Name: "inventory", Aliases: []string{"i", "inv"}, Description: "List what you carry.", Handler: handleInventory})
	r.Register(Spec{Name: "stats", Description: "Show your character stats.", Handler: handleStats})
	r.Register(Spec{Name: "who", Description: "List who is online.", Handler: handleWho})

	r.Register(Spec{Name: "say", Description: "Speak to your room.", Handler: handleSay})
	r.Register(Spec{Name: "tell", Description: "Send a private message.", Handler: handleTell})
	r.Register(Spec{Name: "gossip", Description: "Broadcast to every connected player.", Handler: handleGossip})
	r.Register(Spec{Name: "emote", Aliases: []string{"me"}, Description: "Perform an action.", Handler: handleEmote})
	r.Register(Spec{Name: "follow", Description: "Follow another player.", Handler: handleFollow})
	r.Register(Spec{Name: "unfollow", Description: "Stop following.", Handler: handleUnfollow})

	r.Register(Spec{Name: "attack", Aliases: []string{"kill", "att"}, Description: "Attack a target.", Handler: handleAttack})
	r.Register(Spec{Name: "defend", Description: "Take a defensive combat stance.", Handler: handleDefend})
	r.Register(Spec{Name: "flee", Description: "Attempt to flee combat.", Handler: handleFlee})
	r.Register(Spec{Name: "combat", Description: "Show the current combat state.", Handler: handleCombatStatus})
	r.Register(Spec{Name: "talk", Description: "Talk to an NPC.", Handler: handleTalk})
	r.Register(Spec{Name: "buy", Description: "Buy an item from a vendor.", Handler: handleBuy})
	r.Register(Spec{Name: "sell", Description: "Sell an item to a vendor.", Handler: handleSell})

	r.Register(Spec{Name: "goto", AdminOnly: true, Description: "Teleport to a room.", Handler: handleGoto})
	r.Register(Spec{Name: "createroom", AdminOnly: true, Description: "Create a new room.", Handler: handleCreateRoom})
	r.Register(Spec{Name: "scheduler", AdminOnly: true, Description: "Inspect or control the tick scheduler.", Handler: handleScheduler})

	r.Register(Spec{Name: "quit", Aliases: []string{"logout"}, Description: "Disconnect.", Handler: handleQuit})
}

func handleLook(ctx *Context, arg string) Result {
	player, err := ctx.Players.GetPlayer(ctx.PlayerID)
	if err != nil {
		return Fail("You seem to not exist. That's concerning.")
	}

	room, err := ctx.World.GetRoom(player.RoomID)
	if err != nil {
		return Fail("You are nowhere. That's concerning.")
	}

	var b strings.Builder
	b.WriteString(room.LocalizedName(ctx.Locale))
	b.WriteString("\n")
	b.WriteString(room.LocalizedDescription(ctx.Locale))

	exits := make([]string, 0, len(room.Exits))
	for dir := range room.Exits {
		exits = append(exits, string(dir))
	}
	if len(exits) > 0 {
		b.WriteString("\nExits: " + strings.Join(exits, ", "))
	}

	for _, obj := range ctx.World.GetRoomObjects(room.ID) {
		b.WriteString("\n" + obj.LocalizedName(ctx.Locale) + " is here.")
	}
	for _, mo := range ctx.World.GetRoomMonsters(room.ID) {
		b.WriteString("\n" + mo.LocalizedName(ctx.Locale) + " is here.")
	}
	for _, pid := range ctx.World.PlayersInRoom(room.ID) {
		if pid == ctx.PlayerID {
			continue
		}
		if p, err := ctx.Players.GetPlayer(pid); err == nil {
			b.WriteString("\n" + p.Username + " is here.")
		}
	}

	return OkData(b.String(), map[string]interface{}{"room_id": room.ID})
}

func handleGo(ctx *Context, arg string) Result {
	dir, ok := model.ParseDirection(arg)
	if !ok {
		return Fail("Go where?")
	}

	if ctx.Combat.InCombat(ctx.PlayerID) {
		return Fail("You can't walk away from combat; try to flee.")
	}

	player, err := ctx.Players.GetPlayer(ctx.PlayerID)
	if err != nil {
		return Fail("You seem to not exist.")
	}

	return ctx.Movement.MovePlayerToRoom(ctx.PlayerID, player.RoomID, string(dir))
}

func handleGet(ctx *Context, arg string) Result {
	if arg == "" {
		return Fail("Get what?")
	}
	player, err := ctx.Players.GetPlayer(ctx.PlayerID)
	if err != nil {
		return Fail("You seem to not exist.")
	}

	for _, obj := range ctx.World.GetRoomObjects(player.RoomID) {
		if matchesName(obj.LocalizedName(ctx.Locale), arg) {
			player.Inventory = append(player.Inventory, obj.ID)
			if err := ctx.Players.SavePlayer(player); err != nil {
				return Fail("Couldn't pick that up.")
			}
			return Ok("You take " + obj.LocalizedName(ctx.Locale) + ".")
		}
	}
	return Fail("You don't see that here.")
}

func handleDrop(ctx *Context, arg string) Result {
	if arg == "" {
		return Fail("Drop what?")
	}
	player, err := ctx.Players.GetPlayer(ctx.PlayerID)
	if err != nil {
		return Fail("You seem to not exist.")
	}

	for i, objID := range player.Inventory {
		obj, err := ctx.World.GetObject(objID)
		if err != nil {
			continue
		}
		if matchesName(obj.LocalizedName(ctx.Locale), arg) {
			player.Inventory = append(player.Inventory[:i], player.Inventory[i+1:]...)
			if err := ctx.Players.SavePlayer(player); err != nil {
				return Fail("Couldn't drop that.")
			}
			return Ok("You drop " + obj.LocalizedName(ctx.Locale) + ".")
		}
	}
	return Fail("You aren't carrying that.")
}

func matchesName(name, query string) bool {
	return strings.Contains(strings.ToLower(name), strings.ToLower(query))
}

func handleInventory(ctx *Context, arg string) Result {
	player, err := ctx.Players.GetPlayer(ctx.PlayerID)
	if err != nil {
		return Fail("You seem to not exist.")
	}
	if len(player.Inventory) == 0 {
		return Ok("You aren't carrying anything.")
	}

	names := make([]string, 0, len(player.Inventory))
	for _, objID := range player.Inventory {
		if obj, err := ctx.World.GetObject(objID); err == nil {
			names = append(names, obj.LocalizedName(ctx.Locale))
		}
	}
	return OkData("You are carrying: "+strings.Join(names, ", "), names)
}

func handleStats(ctx *Context, arg string) Result {
	player, err := ctx.Players.GetPlayer(ctx.PlayerID)
	if err != nil {
		return Fail("You seem to not exist.")
	}
	s := player.Stats
	msg := fmt.Sprintf("Level %d | HP %d/%d | MP %d/%d | Attack %d | Defense %d | Speed %d",
		s.Level, s.HP, s.MaxHP, s.MP, s.MaxMP, s.Attack, s.Defense, s.Speed)
	return OkData(msg, s)
}

func handleWho(ctx *Context, arg string) Result {
	if ctx.Online == nil {
		return Ok("Nobody else seems to be online.")
	}
	online := ctx.Online.OnlinePlayers()
	if len(online) == 0 {
		return Ok("Nobody is online right now.")
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%d player(s) online:", len(online)))
	for _, p := range online {
		b.WriteString("\n  " + p.Username + " - " + p.RoomID)
	}
	return OkData(b.String(), online)
}

func handleSay(ctx *Context, arg string) Result {
	if arg == "" {
		return Fail("Say what?")
	}
	player, err := ctx.Players.GetPlayer(ctx.PlayerID)
	if err != nil {
		return Fail("You seem to not exist.")
	}
	ctx.Chat.BroadcastRoom(player.RoomID, player.Username+" says: "+arg, ctx.PlayerID)
	return Ok("You say: " + arg)
}

func handleTell(ctx *Context, arg string) Result {
	parts := strings.SplitN(arg, " ", 2)
	if len(parts) < 2 {
		return Fail("Tell whom what?")
	}
	if err := ctx.Chat.Tell(ctx.PlayerID, parts[0], parts[1]); err != nil {
		return Fail("Couldn't find that player.")
	}
	return Ok("You tell " + parts[0] + ": " + parts[1])
}

func handleGossip(ctx *Context, arg string) Result {
	if arg == "" {
		return Fail("Gossip what?")
	}
	ctx.Chat.Gossip(ctx.Username, arg)
	return Ok("You gossip: " + arg)
}

func handleEmote(ctx *Context, arg string) Result {
	if arg == "" {
		return Fail("Emote what?")
	}
	player, err := ctx.Players.GetPlayer(ctx.PlayerID)
	if err != nil {
		return Fail("You seem to not exist.")
	}
	ctx.Chat.BroadcastRoom(player.RoomID, player.Username+" "+arg, "")
	return Ok("")
}

func handleFollow(ctx *Context, arg string) Result {
	if arg == "" {
		return Fail("Follow whom?")
	}
	target, err := ctx.Players.FindPlayerByUsername(arg)
	if err != nil {
		return Fail("No such player.")
	}
	player, err := ctx.Players.GetPlayer(ctx.PlayerID)
	if err != nil {
		return Fail("You seem to not exist.")
	}
	player.Following = target.ID
	if err := ctx.Players.SavePlayer(player); err != nil {
		return Fail("Couldn't start following.")
	}
	return Ok("You start following " + target.Username + ".")
}

func handleUnfollow(ctx *Context, arg string) Result {
	player, err := ctx.Players.GetPlayer(ctx.PlayerID)
	if err != nil {
		return Fail("You seem to not exist.")
	}
	player.Following = ""
	if err := ctx.Players.SavePlayer(player); err != nil {
		return Fail("Couldn't stop following.")
	}
	return Ok("You stop following.")
}

func handleAttack(ctx *Context, arg string) Result {
	player, err := ctx.Players.GetPlayer(ctx.PlayerID)
	if err != nil {
		return Fail("You seem to not exist.")
	}
	if ctx.Combat.InCombat(ctx.PlayerID) {
		return ctx.Combat.Act(ctx.PlayerID, "attack", arg)
	}

	participants := []string{ctx.PlayerID}
	if arg != "" {
		for _, mo := range ctx.World.GetRoomMonsters(player.RoomID) {
			if matchesName(mo.LocalizedName(ctx.Locale), arg) {
				participants = append(participants, mo.ID)
				break
			}
		}
	}
	if len(participants) < 2 {
		return Fail("Attack what?")
	}

	if _, err := ctx.Combat.StartCombat(player.RoomID, participants); err != nil {
		return Fail("You can't start a fight right now.")
	}
	return ctx.Combat.Act(ctx.PlayerID, "attack", arg)
}

func handleDefend(ctx *Context, arg string) Result {
	if !ctx.Combat.InCombat(ctx.PlayerID) {
		return Fail("You aren't in combat.")
	}
	return ctx.Combat.Act(ctx.PlayerID, "defend", "")
}

func handleFlee(ctx *Context, arg string) Result {
	if !ctx.Combat.InCombat(ctx.PlayerID) {
		return Fail("You aren't in combat.")
	}
	return ctx.Combat.Act(ctx.PlayerID, "flee", "")
}

func handleCombatStatus(ctx *Context, arg string) Result {
	if !ctx.Combat.InCombat(ctx.PlayerID) {
		return Ok("You aren't in combat.")
	}
	return ctx.Combat.Act(ctx.PlayerID, "status", "")
}

func handleTalk(ctx *Context, arg string) Result {
	if ctx.Dialogue == nil {
		return Fail("There's nobody here to talk to.")
	}

	if choiceIdx, err := strconv.Atoi(strings.TrimSpace(arg)); err == nil {
		line, err := ctx.Dialogue.AdvanceDialogue(ctx.Username, choiceIdx-1)
		if err != nil {
			return Fail("You aren't in a conversation.")
		}
		return OkData(renderDialogueLine(line), line)
	}

	if arg == "" {
		return Fail("Talk to whom?")
	}

	player, err := ctx.Players.GetPlayer(ctx.PlayerID)
	if err != nil {
		return Fail("You seem to not exist.")
	}

	for _, mo := range ctx.World.GetRoomMonsters(player.RoomID) {
		if matchesName(mo.LocalizedName(ctx.Locale), arg) {
			line, err := ctx.Dialogue.StartDialogue(ctx.Username, mo.TemplateID)
			if err != nil {
				return Ok(mo.LocalizedName(ctx.Locale) + " has nothing to say right now.")
			}
			return OkData(renderDialogueLine(line), line)
		}
	}
	return Fail("You don't see that here.")
}

func renderDialogueLine(line DialogueLine) string {
	var b strings.Builder
	b.WriteString(line.SpeakerName + ": " + line.Text)
	for i, choice := range line.Choices {
		b.WriteString(fmt.Sprintf("\n  %d) %s", i+1, choice))
	}
	if line.Ended {
		b.WriteString("\n(conversation ends)")
	}
	return b.String()
}

func handleBuy(ctx *Context, arg string) Result {
	return Fail("There's no vendor here.")
}

func handleSell(ctx *Context, arg string) Result {
	return Fail("There's no vendor here.")
}

func handleGoto(ctx *Context, arg string) Result {
	if arg == "" {
		return Fail("Goto which room?")
	}
	if _, err := ctx.World.GetRoom(arg); err != nil {
		return Fail("No such room.")
	}
	player, err := ctx.Players.GetPlayer(ctx.PlayerID)
	if err != nil {
		return Fail("You seem to not exist.")
	}
	return ctx.Movement.MovePlayerToRoom(ctx.PlayerID, player.RoomID, "goto:"+arg)
}

func handleCreateRoom(ctx *Context, arg string) Result {
	parts := strings.SplitN(arg, " ", 2)
	if len(parts) < 2 {
		return Fail("Usage: createroom <id> <name>")
	}
	id, name := parts[0], parts[1]
	room := model.NewRoom(id, locale.New(name), locale.New(name))
	if err := ctx.World.CreateRoom(context.Background(), room); err != nil {
		return Fail("Couldn't create room: " + err.Error())
	}
	return Ok("Room " + id + " created.")
}

func handleScheduler(ctx *Context, arg string) Result {
	if ctx.Scheduler == nil {
		return Fail("Scheduler is not available.")
	}

	parts := strings.Fields(arg)
	if len(parts) == 0 {
		events := ctx.Scheduler.List()
		var b strings.Builder
		b.WriteString(fmt.Sprintf("%d scheduled event(s):", len(events)))
		for _, e := range events {
			state := "enabled"
			if !e.Enabled {
				state = "disabled"
			}
			b.WriteString(fmt.Sprintf("\n  %s [%s] runs=%d errors=%d last_run=%s",
				e.Name, state, e.RunCount, e.ErrorCount, e.LastRun.Format("15:04:05")))
		}
		return OkData(b.String(), events)
	}

	sub, name := parts[0], ""
	if len(parts) > 1 {
		name = parts[1]
	}

	switch sub {
	case "info":
		info, ok := ctx.Scheduler.Info(name)
		if !ok {
			return Fail("No such scheduled event: " + name)
		}
		return OkData(fmt.Sprintf("%s: runs=%d errors=%d last_error=%q",
			info.Name, info.RunCount, info.ErrorCount, info.LastError), info)
	case "enable":
		if !ctx.Scheduler.Enable(name) {
			return Fail("No such scheduled event: " + name)
		}
		return Ok("Enabled " + name + ".")
	case "disable":
		if !ctx.Scheduler.Disable(name) {
			return Fail("No such scheduled event: " + name)
		}
		return Ok("Disabled " + name + ".")
	default:
		return Fail("Usage: scheduler [info|enable|disable] <event>")
	}
}

func handleQuit(ctx *Context, arg string) Result {
	return OkUI("Goodbye.", "quit")
}
