package metrics

import "sync"

// AvgCount is the number of frames averaged for FrameTime.
const AvgCount = 30

// Frames tracks frame times and frames per second
type Frames struct {
	mu sync.RWMutex

	frameAvgCounter    int
	msTimes            [AvgCount]float64
	msAvg              float64
	frames             int
	accumulatedFrameMS float64
	fps                float64
}

func New() *Frames {
	return &Frames{}
}

// Update records one frame that took frameElapsedTime seconds
func (f *Frames) Update(frameElapsedTime float64) {
	f.mu.Lock()
	defer f.mu.Unlock()

	// Calculate frame ms average
	frameMS := frameElapsedTime * 1000.0
	f.msTimes[f.frameAvgCounter] = frameMS
	if f.frameAvgCounter == AvgCount-1 {
		sum := 0.0
		for i := 0; i < AvgCount; i++ {
			sum += f.msTimes[i]
		}
		f.msAvg = sum / float64(AvgCount)
	}
	f.frameAvgCounter++
	f.frameAvgCounter %= AvgCount

	// Count all frames.
	f.frames++

	// Calculate frames per second.
	f.accumulatedFrameMS += frameMS
	if f.accumulatedFrameMS >= 1000 {
		f.fps = float64(f.frames)
		f.accumulatedFrameMS -= 1000
		f.frames = 0
	}
}

func (f *Frames) FPS() float64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.fps
}

// FrameTime is the average frame time in milliseconds over the last AvgCount frames
func (f *Frames) FrameTime() float64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.msAvg
}

func (f *Frames) Frame() (float64, float64) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.fps, f.msAvg
}
