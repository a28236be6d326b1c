package httpapi

import (
	"consult-signaling/internal/config"

	"github.com/pion/webrtc/v4"
)

// ICEServers builds the STUN/TURN list handed to browsers for RTCPeerConnection.
// STUN entries are listed one per server; TURN shares one credential.
func ICEServers(cfg config.ICEConfig) []webrtc.ICEServer {
	out := make([]webrtc.ICEServer, 0, len(cfg.STUNURLs)+1)
	for _, u := range cfg.STUNURLs {
		out = append(out, webrtc.ICEServer{URLs: []string{u}})
	}
	if len(cfg.TURNURLs) > 0 {
		out = append(out, webrtc.ICEServer{
			URLs:       cfg.TURNURLs,
			Username:   cfg.TURNUsername,
			Credential: cfg.TURNPassword,
		})
	}
	return out
}
