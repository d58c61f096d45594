// Package tracker implements a ByteTrack style multi-object tracker.  It
// associates per frame detections to persistent tracks in two passes, high
// confidence detections first against the active track pool, then low
// confidence detections against whatever remained, so briefly occluded
// objects keep their identifiers.
package tracker

import (
	"fmt"
)

// Detection is a detector result handed to the tracker for association.
type Detection struct {
	// Rect is the bounding box in pixel coordinates.
	Rect Rect
	// Label is the class label of the detection.
	Label string
	// Score is the detection confidence.
	Score float32
}

// Tracker maintains the set of active, lost and removed tracks across
// frames.  One Tracker serves one video session and is not safe for
// concurrent use.
type Tracker struct {
	// trackThresh splits detections into the high and low score passes
	trackThresh float32
	// highThresh is the minimum score to start a brand new track
	highThresh float32
	// matchThresh is the IoU cost limit of the first association pass
	matchThresh float32
	// maxLost is how many frames a lost track is kept before removal
	maxLost int

	frameID int
	nextID  int

	tracked []*Track
	lost    []*Track
	removed []*Track
}

// NewTracker returns a tracker tuned for the given frame rate.  trackBuffer
// is the lost-track buffer length in frames at 30 FPS.
func NewTracker(frameRate, trackBuffer int, trackThresh, highThresh, matchThresh float32) *Tracker {
	return &Tracker{
		trackThresh: trackThresh,
		highThresh:  highThresh,
		matchThresh: matchThresh,
		maxLost:     int(float32(frameRate) / 30.0 * float32(trackBuffer)),
	}
}

// NewDefaultTracker returns a tracker with the stock ByteTrack thresholds.
func NewDefaultTracker(frameRate int) *Tracker {
	return NewTracker(frameRate, 30, 0.5, 0.6, 0.8)
}

// Reset clears all track state and the identifier counter.
func (tk *Tracker) Reset() {
	tk.frameID = 0
	tk.nextID = 0
	tk.tracked = nil
	tk.lost = nil
	tk.removed = nil
}

// Update advances the tracker by one frame and returns the activated
// tracks.
func (tk *Tracker) Update(dets []Detection) ([]*Track, error) {

	tk.frameID++

	// split incoming detections by score
	var detHigh, detLow []*Track

	for _, det := range dets {

		trk := NewTrack(det.Rect, det.Score, det.Label)

		if det.Score >= tk.trackThresh {
			detHigh = append(detHigh, trk)
		} else {
			detLow = append(detLow, trk)
		}
	}

	// partition existing tracks into confirmed and unconfirmed
	var active, unconfirmed []*Track

	for _, trk := range tk.tracked {
		if trk.Activated() {
			active = append(active, trk)
		} else {
			unconfirmed = append(unconfirmed, trk)
		}
	}

	pool := mergeTracks(active, tk.lost)

	for _, trk := range pool {
		trk.predict()
	}

	// pass 1: high score detections against the full pool
	var current, refound, lostNow, removedNow []*Track

	matches, leftTracks, leftDets := linearAssignment(
		iouCost(pool, detHigh), len(pool), len(detHigh), tk.matchThresh)

	for _, m := range matches {

		trk := pool[m[0]]
		det := detHigh[m[1]]

		if trk.state == stateTracked {
			if err := trk.update(det, tk.frameID); err != nil {
				return nil, fmt.Errorf("first association: %w", err)
			}
			current = append(current, trk)
		} else {
			if err := trk.reActivate(det, tk.frameID); err != nil {
				return nil, fmt.Errorf("first association: %w", err)
			}
			refound = append(refound, trk)
		}
	}

	var remainTracks []*Track

	for _, i := range leftTracks {
		if pool[i].state == stateTracked {
			remainTracks = append(remainTracks, pool[i])
		}
	}

	var remainDets []*Track

	for _, j := range leftDets {
		remainDets = append(remainDets, detHigh[j])
	}

	// pass 2: low score detections recover tracks the detector almost lost
	matches, leftTracks, _ = linearAssignment(
		iouCost(remainTracks, detLow), len(remainTracks), len(detLow), 0.5)

	for _, m := range matches {

		trk := remainTracks[m[0]]
		det := detLow[m[1]]

		if trk.state == stateTracked {
			if err := trk.update(det, tk.frameID); err != nil {
				return nil, fmt.Errorf("second association: %w", err)
			}
			current = append(current, trk)
		} else {
			if err := trk.reActivate(det, tk.frameID); err != nil {
				return nil, fmt.Errorf("second association: %w", err)
			}
			refound = append(refound, trk)
		}
	}

	for _, i := range leftTracks {
		trk := remainTracks[i]
		if trk.state != stateLost {
			trk.markLost()
			lostNow = append(lostNow, trk)
		}
	}

	// pass 3: unconfirmed tracks only live one frame without support
	matches, leftTracks, leftDets = linearAssignment(
		iouCost(unconfirmed, remainDets), len(unconfirmed), len(remainDets), 0.7)

	for _, m := range matches {
		if err := unconfirmed[m[0]].update(remainDets[m[1]], tk.frameID); err != nil {
			return nil, fmt.Errorf("unconfirmed association: %w", err)
		}
		current = append(current, unconfirmed[m[0]])
	}

	for _, i := range leftTracks {
		unconfirmed[i].markRemoved()
		removedNow = append(removedNow, unconfirmed[i])
	}

	// leftover high score detections start new tracks
	for _, j := range leftDets {

		det := remainDets[j]

		if det.Score() < tk.highThresh {
			continue
		}

		tk.nextID++
		det.activate(tk.frameID, tk.nextID)
		current = append(current, det)
	}

	// expire lost tracks past the buffer
	for _, trk := range tk.lost {
		if tk.frameID-trk.FrameID() > tk.maxLost {
			trk.markRemoved()
			removedNow = append(removedNow, trk)
		}
	}

	tk.tracked = mergeTracks(current, refound)
	tk.lost = subtractTracks(
		mergeTracks(subtractTracks(tk.lost, tk.tracked), lostNow), tk.removed)
	tk.removed = mergeTracks(tk.removed, removedNow)

	tk.tracked, tk.lost = dropOverlaps(tk.tracked, tk.lost)

	var out []*Track

	for _, trk := range tk.tracked {
		if trk.Activated() {
			out = append(out, trk)
		}
	}

	return out, nil
}

// mergeTracks combines two track lists, dropping duplicate identifiers.
func mergeTracks(a, b []*Track) []*Track {

	seen := make(map[int]bool, len(a)+len(b))
	var res []*Track

	for _, trk := range a {
		seen[trk.TrackID()] = true
		res = append(res, trk)
	}

	for _, trk := range b {
		if !seen[trk.TrackID()] {
			seen[trk.TrackID()] = true
			res = append(res, trk)
		}
	}

	return res
}

// subtractTracks removes from a every track whose identifier appears in b.
func subtractTracks(a, b []*Track) []*Track {

	drop := make(map[int]bool, len(b))

	for _, trk := range b {
		drop[trk.TrackID()] = true
	}

	var res []*Track

	for _, trk := range a {
		if !drop[trk.TrackID()] {
			res = append(res, trk)
		}
	}

	return res
}

// dropOverlaps resolves tracked/lost pairs occupying the same area, keeping
// whichever has been alive longer.
func dropOverlaps(tracked, lost []*Track) (keptTracked, keptLost []*Track) {

	dupTracked := make([]bool, len(tracked))
	dupLost := make([]bool, len(lost))

	for i, a := range tracked {
		for j, b := range lost {

			if a.Rect().IoU(b.Rect()) < 0.85 {
				continue
			}

			if a.FrameID()-a.StartFrame() > b.FrameID()-b.StartFrame() {
				dupLost[j] = true
			} else {
				dupTracked[i] = true
			}
		}
	}

	for i, dup := range dupTracked {
		if !dup {
			keptTracked = append(keptTracked, tracked[i])
		}
	}

	for j, dup := range dupLost {
		if !dup {
			keptLost = append(keptLost, lost[j])
		}
	}

	return keptTracked, keptLost
}

// iouCost builds the association cost matrix, 1 - IoU per track/detection
// pair.
func iouCost(tracks, dets []*Track) [][]float32 {

	if len(tracks)*len(dets) == 0 {
		return nil
	}

	cost := make([][]float32, len(tracks))

	for i, trk := range tracks {
		cost[i] = make([]float32, len(dets))
		for j, det := range dets {
			cost[i][j] = 1 - trk.Rect().IoU(det.Rect())
		}
	}

	return cost
}
