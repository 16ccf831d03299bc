// events_test.go covers the pure interaction helpers; the networked gateway
// paths are exercised against Discord itself.

package gateway

import (
	"testing"

	"github.com/bwmarrin/discordgo"
)

func TestInvokerID(t *testing.T) {
	tests := []struct {
		name string
		i    *discordgo.InteractionCreate
		want string
	}{
		{
			"guild_invocation",
			&discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
				Member: &discordgo.Member{User: &discordgo.User{ID: "member-1"}},
			}},
			"member-1",
		},
		{
			"dm_invocation",
			&discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
				User: &discordgo.User{ID: "user-1"},
			}},
			"user-1",
		},
		{
			"no_user",
			&discordgo.InteractionCreate{Interaction: &discordgo.Interaction{}},
			"",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := invokerID(tt.i); got != tt.want {
				t.Errorf("invokerID = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestOptionValue(t *testing.T) {
	data := discordgo.ApplicationCommandInteractionData{
		Options: []*discordgo.ApplicationCommandInteractionDataOption{
			{
				Name:  targetOption,
				Type:  discordgo.ApplicationCommandOptionString,
				Value: "<@200000000000000001>",
			},
		},
	}

	if got := optionValue(data, targetOption); got != "<@200000000000000001>" {
		t.Errorf("optionValue = %q, want the mention", got)
	}
	if got := optionValue(data, "missing"); got != "" {
		t.Errorf("optionValue(missing) = %q, want empty", got)
	}
}

func TestCommandDefs(t *testing.T) {
	byName := make(map[string]*discordgo.ApplicationCommand, len(commandDefs))
	for _, def := range commandDefs {
		byName[def.Name] = def
	}

	for _, name := range []string{"follow", "unfollow"} {
		def, ok := byName[name]
		if !ok {
			t.Fatalf("missing /%s command", name)
		}
		if len(def.Options) != 1 || def.Options[0].Name != targetOption || !def.Options[0].Required {
			t.Errorf("/%s must take one required %q option", name, targetOption)
		}
	}

	def, ok := byName["following"]
	if !ok {
		t.Fatal("missing /following command")
	}
	if len(def.Options) != 0 {
		t.Errorf("/following takes no options, got %d", len(def.Options))
	}
}
