package driven

import (
	port "github.com/alorle/censo-escolar/internal/port/driven"
)

// Compile-time checks that every adapter implements its port.
var (
	_ port.InstitutionRepository = (*InstitutionBoltDBRepository)(nil)
	_ port.InstitutionRepository = (*InstitutionSQLiteRepository)(nil)
	_ port.LocalityRepository    = (*LocalityBoltDBRepository)(nil)
	_ port.LocalityRepository    = (*LocalitySQLiteRepository)(nil)
	_ port.LocalitySource        = (*IBGEHTTPSource)(nil)
	_ port.CensusReader          = (*CensusCSVReader)(nil)
	_ port.ListCache             = (*RedisListCache)(nil)
	_ port.GeoFetcher            = (*GeoHTTPFetcher)(nil)
)
