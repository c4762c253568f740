package signal

import (
	"github.com/edulive/classroom/internal/domain"
)

func (ctl *CollabController) handlePing(conn *wsConn) {
	resp := struct {
		Type string `json:"type"`
	}{
		Type: "pong",
	}
	ctl.sendJSON(conn, resp)
}

func (ctl *CollabController) handleWhoAmI(roomID domain.RoomID, user *domain.User, conn *wsConn) {
	resp := struct {
		Type        string        `json:"type"`
		UserID      domain.UserID `json:"user_id"`
		Username    string        `json:"username"`
		Role        string        `json:"role"`
		Room        domain.RoomID `json:"room"`
		Participant bool          `json:"participant"`
	}{
		Type:        "whoami",
		UserID:      user.ID,
		Username:    user.DisplayName,
		Role:        user.Role.String(),
		Room:        roomID,
		Participant: ctl.Conf.IsParticipant(roomID, user.ID),
	}
	ctl.sendJSON(conn, resp)
}
