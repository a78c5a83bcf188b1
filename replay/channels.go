package replay

import (
	"fmt"

	"github.com/jsphweid/songreplay/constants"
	"github.com/jsphweid/songreplay/model"
)

// AssignChannels gives each melodic voice its own channel starting at 1.
// Channel 0 is left to live input and the percussion channel to the drums.
func AssignChannels(numMelodic int, withDrums bool) ([]uint8, error) {
	res := make([]uint8, 0, numMelodic+1)
	channel := constants.LiveInputChannel + 1
	for i := 0; i < numMelodic; i++ {
		if channel == constants.DrumChannel {
			channel++
		}
		if int(channel) >= constants.NumChannels {
			return nil, &model.ConfigurationError{
				Reason: fmt.Sprintf("%d voices do not fit in %d channels", numMelodic, constants.NumChannels),
			}
		}
		res = append(res, channel)
		channel++
	}
	if withDrums {
		res = append(res, constants.DrumChannel)
	}
	return res, nil
}
