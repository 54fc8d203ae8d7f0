package web

import (
	"net/http"
	"time"

	wifiinfo "github.com/dogeorg/wifiinfo/pkg"
	"github.com/dogeorg/wifiinfo/pkg/format"
)

type ScanResponse struct {
	Results []wifiinfo.ScanRecord `json:"results"`
}

type ScanDetailResponse struct {
	Record  wifiinfo.ScanRecord `json:"record"`
	Details []format.Field      `json:"details"`
}

func (t api) getScan(w http.ResponseWriter, r *http.Request) {
	sendResponse(w, ScanResponse{Results: t.wi.Results.Results()})
}

func (t api) getScanDetail(w http.ResponseWriter, r *http.Request) {
	bssid := r.PathValue("bssid")
	record, ok := t.wi.Results.Find(bssid)
	if !ok {
		sendErrorResponse(w, http.StatusNotFound, wifiinfo.ErrNotFound.Error())
		return
	}

	sendResponse(w, ScanDetailResponse{
		Record:  record,
		Details: format.Details(record, time.Now()),
	})
}

// the outcome arrives on the websocket under the returned id
func (t api) startScan(w http.ResponseWriter, r *http.Request) {
	id := t.wi.AddAction(wifiinfo.StartScan{})
	sendResponse(w, map[string]string{"id": id})
}

func (t api) clearScan(w http.ResponseWriter, r *http.Request) {
	id := t.wi.AddAction(wifiinfo.ClearResults{})
	sendResponse(w, map[string]string{"id": id})
}
