package graph

// Cypher used by Repository. Every statement is scoped by userId so a memory
// can only ever be touched by its owner.

const createMemoryQuery = `
	CREATE (m:Memory {
		id: $id,
		text: $text,
		date: $date,
		emotion: $emotion,
		userId: $userId,
		createdAt: datetime($createdAt),
		photoUrls: $photoUrls,
		photoCaptions: $photoCaptions
	})
	RETURN m.id as id
`

const ownedMemoryQuery = `
	MATCH (m:Memory {id: $id, userId: $userId})
	RETURN m.id as id
`

const updateScalarsQuery = `
	MATCH (m:Memory {id: $id, userId: $userId})
	SET m += $props
`

const setPhotosQuery = `
	MATCH (m:Memory {id: $id, userId: $userId})
	SET m.photoUrls = $photoUrls,
	    m.photoCaptions = $photoCaptions
`

// merge-on-name: (userId, name) identifies a person or place
const attachPeopleQuery = `
	MATCH (m:Memory {id: $id, userId: $userId})
	UNWIND $people AS person
	MERGE (p:Person {userId: $userId, name: person.name})
	ON CREATE SET p.id = person.id
	SET p.relationship = CASE WHEN person.relationship <> '' THEN person.relationship ELSE p.relationship END
	CREATE (m)-[:INVOLVES_PERSON {position: person.position}]->(p)
`

const attachPlacesQuery = `
	MATCH (m:Memory {id: $id, userId: $userId})
	UNWIND $places AS place
	MERGE (pl:Place {userId: $userId, name: place.name})
	ON CREATE SET pl.id = place.id
	SET pl.type = CASE WHEN place.type <> '' THEN place.type ELSE pl.type END
	CREATE (m)-[:OCCURRED_AT {position: place.position}]->(pl)
`

// targets that are missing, foreign or the memory itself fall out of the MATCH
const attachLinksQuery = `
	MATCH (m:Memory {id: $id, userId: $userId})
	UNWIND $links AS link
	MATCH (target:Memory {id: link.id, userId: $userId})
	WHERE target.id <> m.id
	CREATE (m)-[:RELATED_TO {position: link.position}]->(target)
`

const detachPeopleQuery = `
	MATCH (m:Memory {id: $id, userId: $userId})-[r:INVOLVES_PERSON]->(:Person)
	DELETE r
`

const detachPlacesQuery = `
	MATCH (m:Memory {id: $id, userId: $userId})-[r:OCCURRED_AT]->(:Place)
	DELETE r
`

const detachLinksQuery = `
	MATCH (m:Memory {id: $id, userId: $userId})-[r:RELATED_TO]->(:Memory)
	DELETE r
`

const deleteMemoryQuery = `
	MATCH (m:Memory {id: $id, userId: $userId})
	WITH m, m.id as id
	DETACH DELETE m
	RETURN id
`

const memoryProjection = `
	RETURN
		m.id as id,
		m.text as text,
		m.date as date,
		m.emotion as emotion,
		m.userId as user_id,
		m.createdAt as created_at,
		m.photoUrls as photo_urls,
		m.photoCaptions as photo_captions,
		[(m)-[r:INVOLVES_PERSON]->(p:Person) | {id: p.id, name: p.name, label: p.relationship, position: r.position}] as people,
		[(m)-[r:OCCURRED_AT]->(pl:Place) | {id: pl.id, name: pl.name, label: pl.type, position: r.position}] as places,
		[(m)-[r:RELATED_TO]->(lm:Memory {userId: $userId}) | {id: lm.id, position: r.position}] as links
`

const listMemoriesQuery = `
	MATCH (m:Memory {userId: $userId})
` + memoryProjection + `
	ORDER BY m.createdAt, m.id
`

const getMemoryQuery = `
	MATCH (m:Memory {id: $id, userId: $userId})
` + memoryProjection
