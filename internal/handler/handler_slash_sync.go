package handler

import (
	"fmt"
	"log"
	"reflect"
	"sort"

	"github.com/bwmarrin/discordgo"
)

// syncPlan ローカル定義とリモートの差分
type syncPlan struct {
	create []*discordgo.ApplicationCommand
	update map[string]*discordgo.ApplicationCommand // remote ID -> local
	remove []*discordgo.ApplicationCommand
}

func planSync(local, remote []*discordgo.ApplicationCommand) syncPlan {
	plan := syncPlan{update: make(map[string]*discordgo.ApplicationCommand)}

	remoteByName := make(map[string]*discordgo.ApplicationCommand, len(remote))
	for _, cmd := range remote {
		remoteByName[cmd.Name] = cmd
	}

	for _, l := range local {
		r, exists := remoteByName[l.Name]
		if !exists {
			plan.create = append(plan.create, l)
			continue
		}
		if !commandsAreEqual(l, r) {
			plan.update[r.ID] = l
		}
		delete(remoteByName, l.Name)
	}

	for _, r := range remote {
		if _, stale := remoteByName[r.Name]; stale {
			plan.remove = append(plan.remove, r)
		}
	}
	return plan
}

func (h *Handler) SyncSlashCommands(s *discordgo.Session) error {
	appID := s.State.User.ID
	remote, err := s.ApplicationCommands(appID, "")
	if err != nil {
		return fmt.Errorf("could not fetch remote commands: %w", err)
	}

	plan := planSync(h.registry.GetSlashDefinitions(), remote)

	for _, cmd := range plan.create {
		log.Printf("Creating slash command: /%s", cmd.Name)
		if _, err := s.ApplicationCommandCreate(appID, "", cmd); err != nil {
			log.Printf("Failed to create command /%s: %v", cmd.Name, err)
		}
	}
	for id, cmd := range plan.update {
		log.Printf("Updating slash command: /%s", cmd.Name)
		if _, err := s.ApplicationCommandEdit(appID, "", id, cmd); err != nil {
			log.Printf("Failed to update command /%s: %v", cmd.Name, err)
		}
	}
	for _, cmd := range plan.remove {
		log.Printf("Deleting outdated slash command: /%s", cmd.Name)
		if err := s.ApplicationCommandDelete(appID, "", cmd.ID); err != nil {
			log.Printf("Failed to delete command /%s: %v", cmd.Name, err)
		}
	}

	log.Printf("Slash command sync complete (%d created, %d updated, %d deleted)",
		len(plan.create), len(plan.update), len(plan.remove))
	return nil
}

func commandsAreEqual(c1, c2 *discordgo.ApplicationCommand) bool {
	if c1.Name != c2.Name || c1.Description != c2.Description {
		return false
	}
	return optionListsEqual(c1.Options, c2.Options)
}

func optionListsEqual(a, b []*discordgo.ApplicationCommandOption) bool {
	if len(a) != len(b) {
		return false
	}
	a, b = sortedOptions(a), sortedOptions(b)
	for i := range a {
		if !optionsAreEqual(a[i], b[i]) {
			return false
		}
	}
	return true
}

func sortedOptions(opts []*discordgo.ApplicationCommandOption) []*discordgo.ApplicationCommandOption {
	out := make([]*discordgo.ApplicationCommandOption, len(opts))
	copy(out, opts)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func optionsAreEqual(o1, o2 *discordgo.ApplicationCommandOption) bool {
	if o1.Type != o2.Type || o1.Name != o2.Name || o1.Description != o2.Description || o1.Required != o2.Required {
		return false
	}
	if len(o1.Choices) != len(o2.Choices) {
		return false
	}
	if len(o1.Choices) > 0 {
		c1 := make([]*discordgo.ApplicationCommandOptionChoice, len(o1.Choices))
		copy(c1, o1.Choices)
		sort.Slice(c1, func(i, j int) bool { return c1[i].Name < c1[j].Name })

		c2 := make([]*discordgo.ApplicationCommandOptionChoice, len(o2.Choices))
		copy(c2, o2.Choices)
		sort.Slice(c2, func(i, j int) bool { return c2[i].Name < c2[j].Name })

		if !reflect.DeepEqual(c1, c2) {
			return false
		}
	}
	return optionListsEqual(o1.Options, o2.Options)
}
