package http

import (
	"encoding/json"
	"fmt"

	"github.com/XianPaz/quizchain/internal/app"
	"github.com/XianPaz/quizchain/internal/domain"
)

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type roomPayload struct {
	RoomCode string `json:"roomCode"`
}

type joinPayload struct {
	RoomCode string `json:"roomCode"`
	Role     string `json:"role"`
	Player   *struct {
		Address string `json:"address"`
		Name    string `json:"name"`
	} `json:"player"`
}

type questionPayload struct {
	RoomCode      string `json:"roomCode"`
	QuestionIndex int    `json:"questionIndex"`
}

type answerPayload struct {
	RoomCode      string   `json:"roomCode"`
	Address       string   `json:"address"`
	QuestionIndex int      `json:"questionIndex"`
	AnswerIndex   int      `json:"answerIndex"`
	SpeedScore    *int     `json:"speedScore"`
	TimeRemaining *float64 `json:"timeRemaining"`
}

type timeoutPayload struct {
	RoomCode      string `json:"roomCode"`
	Address       string `json:"address"`
	QuestionIndex int    `json:"questionIndex"`
}

// decodeCommand maps a wire message onto the typed command it names.
func decodeCommand(msg inboundMessage) (app.Command, error) {
	switch msg.Type {
	case "join_room":
		var p joinPayload
		if err := unmarshalPayload(msg, &p); err != nil {
			return nil, err
		}
		cmd := app.Join{RoomCode: p.RoomCode, Role: app.Role(p.Role)}
		if p.Player != nil {
			cmd.Participant = &domain.Participant{Identity: p.Player.Address, DisplayName: p.Player.Name}
			if cmd.Role == "" {
				cmd.Role = app.RoleParticipant
			}
		}
		if cmd.Role == "" {
			cmd.Role = app.RoleHost
		}
		return cmd, nil
	case "host_start_quiz":
		var p roomPayload
		if err := unmarshalPayload(msg, &p); err != nil {
			return nil, err
		}
		return app.HostStart{RoomCode: p.RoomCode}, nil
	case "host_open_question":
		var p questionPayload
		if err := unmarshalPayload(msg, &p); err != nil {
			return nil, err
		}
		return app.HostOpenQuestion{RoomCode: p.RoomCode, QuestionIndex: p.QuestionIndex}, nil
	case "student_answer":
		var p answerPayload
		if err := unmarshalPayload(msg, &p); err != nil {
			return nil, err
		}
		return app.ParticipantAnswer{
			RoomCode:      p.RoomCode,
			Identity:      p.Address,
			QuestionIndex: p.QuestionIndex,
			OptionIndex:   p.AnswerIndex,
			SpeedScore:    p.SpeedScore,
			TimeRemaining: p.TimeRemaining,
		}, nil
	case "student_timeout":
		var p timeoutPayload
		if err := unmarshalPayload(msg, &p); err != nil {
			return nil, err
		}
		return app.ParticipantTimeout{RoomCode: p.RoomCode, Identity: p.Address, QuestionIndex: p.QuestionIndex}, nil
	case "host_show_stats":
		var p questionPayload
		if err := unmarshalPayload(msg, &p); err != nil {
			return nil, err
		}
		return app.HostShowStats{RoomCode: p.RoomCode, QuestionIndex: p.QuestionIndex}, nil
	case "host_end_quiz":
		var p roomPayload
		if err := unmarshalPayload(msg, &p); err != nil {
			return nil, err
		}
		return app.HostEndQuiz{RoomCode: p.RoomCode}, nil
	case "host_end_without_distribute":
		var p roomPayload
		if err := unmarshalPayload(msg, &p); err != nil {
			return nil, err
		}
		return app.HostEndWithoutDistribute{RoomCode: p.RoomCode}, nil
	case "host_distribute":
		var p roomPayload
		if err := unmarshalPayload(msg, &p); err != nil {
			return nil, err
		}
		return app.HostDistribute{RoomCode: p.RoomCode}, nil
	default:
		return nil, fmt.Errorf("unsupported message type %q", msg.Type)
	}
}

func unmarshalPayload(msg inboundMessage, v any) error {
	if len(msg.Payload) == 0 {
		return fmt.Errorf("missing %s payload", msg.Type)
	}
	if err := json.Unmarshal(msg.Payload, v); err != nil {
		return fmt.Errorf("invalid %s payload", msg.Type)
	}
	return nil
}
